package main

const headerArt = `
+----------------------------------------------------+
|  harvestr :: phishing intelligence gathering fleet |
+----------------------------------------------------+
`

const completionMessage = `
+----------------------------------------------------+
|  DEPLOYMENT COMPLETE: harvester monitors active.   |
|  System is now in persistent monitoring mode.      |
|                                                    |
|  > Structured events: see the configured log file. |
|  > This terminal must remain open.                 |
+----------------------------------------------------+
`
