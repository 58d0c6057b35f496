package cli

import (
	"fmt"
	"io"
)

// ShowHelp writes the usage message to out.
func ShowHelp(out io.Writer) {
	_, _ = fmt.Fprint(out, `dvrwatch: P2P DVR liveness monitor
Usage:
  dvrwatch [serve] [options]
  dvrwatch check [options] SERIAL
  dvrwatch offline --excel FILE [options]
  dvrwatch version

Commands:
  serve      run the dashboard API and the background scanner (default)
  check      check one serial; prints ONLINE (exit 0) or OFFLINE (exit 1)
  offline    scan an inventory file and list the offline rows
  version    print the build version

Options for serve:
  -c, --config string        path to the JSON config file (default "/etc/dvrwatch/dvrwatch.json")

Options for check and offline:
      --directory-host string   directory server host (default "www.easy4ipcloud.com")
      --directory-port int      directory server port (default 8800)
      --codec string            datagram codec, json or cbor (default "json")
      --timeout duration        per-attempt reply timeout (default 2s)
      --attempts int            attempts per request (default 3)
  -v, --verbose                 print resolution details and debug logs

Options for offline:
  -x, --excel string         inventory file (.xlsx or .csv)
      --concurrency int      devices checked in parallel (default 20)

Examples:
  dvrwatch --config ./dvrwatch.json
  dvrwatch check 6E0A1B2PAZ7C9D1
  dvrwatch offline -x P2P1.xlsx
`)
}
