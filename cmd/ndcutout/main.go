package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/janelia-flyem/ndio/config"
	"github.com/janelia-flyem/ndio/ndio"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	configFile = flag.String("config", "", "")
	destConfig = flag.String("destconfig", "", "")

	serviceName = flag.String("service", "", "")
	host        = flag.String("host", "", "")

	resolution = flag.Int("res", 0, "")
	timeRange  = flag.String("t", "", "")
)

const helpMessage = `
ndcutout reads and writes 3d/4d cutouts of image volumes held by Boss, OCP or DVID services.

Usage: ndcutout [options] <command>

      get       <resource> <x0:x1> <y0:y1> <z0:z1> <output>
      post      <resource> <x0:x1> <y0:y1> <z0:z1> <input>
      info      <resource>
      transfer  <resource> <x0:x1> <y0:y1> <z0:z1> <dest resource>

  where resource = bossdb://collection/experiment/channel, ocp://token/channel or dvid://uuid/name
        input, output = .npy file path or bucket URL, e.g., gs://bucket/vol.npy, s3://bucket/vol.npy

  Either -config or both -service and -host must be present.

	-config         =string   TOML configuration file for the source service.
	-destconfig     =string   TOML configuration file for the transfer destination.  Defaults to -config.

	-service        =string   Service name (boss, ocp, dvid) if no configuration file is used.
	-host           =string   Service host if no configuration file is used.

	-res            =number   Resolution level (default 0).
	-t              =string   Time range "t0:t1" for time series channels.

	-verbose    (flag)    Run in verbose mode.
	-h, -help   (flag)    Show help message
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Printf(helpMessage)
	}
	flag.Parse()

	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	if *runVerbose {
		ndio.Verbose = true
		ndio.SetLogMode(ndio.DebugMode)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.SetLogger()
	defer ndio.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := command{
		cfg:        cfg,
		resolution: *resolution,
		timeRange:  *timeRange,
		out:        os.Stdout,
	}
	if *destConfig != "" {
		if cmd.dest, err = loadConfig(*destConfig); err != nil {
			fmt.Printf("Destination configuration error: %v\n", err)
			os.Exit(1)
		}
	}
	err = cmd.run(ctx, flag.Args())
	cmd.shutdown()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(filename string) (*config.Config, error) {
	if filename != "" {
		return config.Load(filename)
	}
	if *serviceName == "" || *host == "" {
		return nil, fmt.Errorf("either -config or both -service and -host must be given")
	}
	return config.New(*serviceName, *host)
}
