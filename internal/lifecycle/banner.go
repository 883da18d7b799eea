package lifecycle

// ShutdownBanner is written once every store has been closed.
const ShutdownBanner = `
 __   __                  _
 \ \ / /__  ___   __ _ (_)_ __ ___
  \ V / _ \/ _ \ / _' || | '__/ _ \
   | |  __/ (_) | (_| || | | | (_) |
   |_|\___|\___/ \__, ||_|_|  \___/
                 |___/
        shelters closed. stay safe.
`
