package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/mlflow-aws/internal/application"
	"github.com/eugenenazirov/mlflow-aws/internal/config"
	"github.com/eugenenazirov/mlflow-aws/internal/output"
)

// Version is set via ldflags at build time.
var Version = "dev"

var signalNotifyContext = signal.NotifyContext

func main() {
	ctx, stop := signalNotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], config.EnvFromOS(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli holds parsed arguments for every command.
type cli struct {
	app *kingpin.Application

	debug     *bool
	logFormat *string

	configList       *kingpin.CmdClause
	configListOutput *string
	configGet        *kingpin.CmdClause
	configGetKey     *string
	configSet        *kingpin.CmdClause
	configSetKey     *string
	configSetValue   *string
	configUnset      *kingpin.CmdClause
	configUnsetKey   *string
	configLocation   *kingpin.CmdClause

	modelsList           *kingpin.CmdClause
	modelsListOutput     *string
	modelsDescribe       *kingpin.CmdClause
	modelsDescribeName   *string
	modelsDescribeOutput *string
	modelsVersions       *kingpin.CmdClause
	modelsVersionsName   *string
	modelsVersionsOutput *string

	lambdaPackage    *kingpin.CmdClause
	lambdaPackageDir *string
	lambdaPackageZip *string
}

func newCLI(stdout, stderr io.Writer) *cli {
	app := kingpin.New("mlflow-aws", "Deploy and manage MLflow models on AWS (SageMaker, Lambda, API Gateway)")
	app.Version(Version)
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	app.HelpFlag.Short('h')

	c := &cli{app: app}
	c.debug = app.Flag("debug", "Enable verbose program output (also enabled by the DEBUG config key)").Bool()
	c.logFormat = app.Flag("log-format", "Diagnostic log encoding").Default("console").Enum("console", "json")

	configCmd := app.Command("config", "Manage configuration")
	c.configList = configCmd.Command("list", "List config options and their values")
	c.configListOutput = outputFlag(c.configList)
	c.configGet = configCmd.Command("get-value", "Get config value (or default)")
	c.configGetKey = c.configGet.Arg("key", "Configuration key").Required().String()
	c.configSet = configCmd.Command("set", "Set config value and store it in the config file")
	c.configSetKey = c.configSet.Arg("key", "Configuration key").Required().String()
	c.configSetValue = c.configSet.Arg("value", "New value").Required().String()
	c.configUnset = configCmd.Command("unset", "Remove config value from the config file")
	c.configUnsetKey = c.configUnset.Arg("key", "Configuration key").Required().String()
	c.configLocation = configCmd.Command("location", "Print the location of the config file")

	modelsCmd := app.Command("models", "Inspect models registered in the MLflow tracking server")
	c.modelsList = modelsCmd.Command("list", "List all registered models")
	c.modelsListOutput = outputFlag(c.modelsList)
	c.modelsDescribe = modelsCmd.Command("describe", "Get information about a model")
	c.modelsDescribeName = c.modelsDescribe.Arg("name", "Registered model name").Required().String()
	c.modelsDescribeOutput = outputFlag(c.modelsDescribe)
	c.modelsVersions = modelsCmd.Command("list-versions", "List versions of a model")
	c.modelsVersionsName = c.modelsVersions.Arg("name", "Registered model name").Required().String()
	c.modelsVersionsOutput = outputFlag(c.modelsVersions)

	lambdaCmd := app.Command("lambda", "Build artifacts for Lambda pre/post-processing functions")
	c.lambdaPackage = lambdaCmd.Command("package", "Validate an inference code folder and zip it for Lambda")
	c.lambdaPackageDir = c.lambdaPackage.Arg("dir", "Inference code folder").Default("ml_service").String()
	c.lambdaPackageZip = c.lambdaPackage.Flag("zip", "Destination archive").Short('z').Default("lambda.zip").String()

	return c
}

func outputFlag(cmd *kingpin.CmdClause) *string {
	return cmd.Flag("output", "Output format").Short('o').Default(string(output.FormatTable)).Enum(output.Formats()...)
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, env config.Env, stdout, stderr io.Writer) int {
	c := newCLI(stdout, stderr)

	selected, err := c.app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "mlflow-aws: error: %v\n", err)
		return 1
	}
	app, err := application.New(env, application.Options{Debug: *c.debug, JSONLog: *c.logFormat == "json"})
	if err != nil {
		fmt.Fprintf(stderr, "mlflow-aws: error: %v\n", err)
		return 1
	}
	defer func() {
		_ = app.Logger().Sync()
	}()
	app.Logger().Debug("command selected", zap.String("command", selected))

	cmd := &commands{app: app, stdout: stdout, stderr: stderr}

	switch selected {
	case c.configList.FullCommand():
		return cmd.configList(*c.configListOutput)
	case c.configGet.FullCommand():
		return cmd.configGet(*c.configGetKey)
	case c.configSet.FullCommand():
		return cmd.configSet(*c.configSetKey, *c.configSetValue)
	case c.configUnset.FullCommand():
		return cmd.configUnset(*c.configUnsetKey)
	case c.configLocation.FullCommand():
		return cmd.configLocation()
	case c.modelsList.FullCommand():
		return cmd.modelsList(ctx, *c.modelsListOutput)
	case c.modelsDescribe.FullCommand():
		return cmd.modelsDescribe(ctx, *c.modelsDescribeName, *c.modelsDescribeOutput)
	case c.modelsVersions.FullCommand():
		return cmd.modelsListVersions(ctx, *c.modelsVersionsName, *c.modelsVersionsOutput)
	case c.lambdaPackage.FullCommand():
		return cmd.lambdaPackage(*c.lambdaPackageDir, *c.lambdaPackageZip)
	}

	fmt.Fprintf(stderr, "mlflow-aws: error: unhandled command %q\n", selected)
	return 1
}

// commands implements each subcommand against the wired application.
type commands struct {
	app    *application.App
	stdout io.Writer
	stderr io.Writer
}

func (c *commands) fail(code int, format string, args ...any) int {
	fmt.Fprintf(c.stderr, format+"\n", args...)
	return code
}
