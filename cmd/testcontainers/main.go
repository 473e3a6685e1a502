package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/testutil"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the landlord store testcontainers (MariaDB, Authorizer and the store server)
with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	logging.Init("testcontainers", os.Getenv("LOG_LEVEL"))
	log := logging.Logger

	if envFilename != "" {
		log.Infof("Loading environment variables from %s", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	} else {
		log.Info("No environment file specified, using current environment variables")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	started := make(chan *testutil.TestContainers, 1)
	go func() {
		tc, err := testutil.CreateAllTestContainers(nil)
		if err != nil {
			log.Fatalf("Failed to create test containers: %v", err)
		}
		started <- tc
	}()

	var testContainers *testutil.TestContainers
	for testContainers == nil {
		select {
		case tc := <-started:
			testContainers = tc
			log.Info("Test containers running, interrupt to terminate")
		case sig := <-sigs:
			log.Warnf("Received signal: %v before the containers started, exiting", sig)
			return
		}
	}

	sig := <-sigs
	log.Infof("Received signal: %v, terminating test containers...", sig)
	testContainers.Terminate(nil)
}
