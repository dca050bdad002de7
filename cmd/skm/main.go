// Command skm trains and evaluates Schlesinger–Kozinec classifiers on
// directories of "<id>_<label>.png" images.
//
//	skm train 0.001 100000 a model.skm train/
//	skm classify model.skm train/ test/ a
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	arg "github.com/alexflint/go-arg"
	"github.com/hupe1980/kozinec"
	"github.com/hupe1980/kozinec/blobstore"
	"github.com/hupe1980/kozinec/codec"
	"github.com/hupe1980/kozinec/dataset"
	"github.com/hupe1980/kozinec/kernel"
	"github.com/hupe1980/kozinec/persistence"
	"github.com/hupe1980/kozinec/registry"
)

type trainCmd struct {
	Epsilon    float64 `arg:"positional,required" help:"margin tolerance"`
	MaxUpdates int     `arg:"positional,required" help:"update budget"`
	Class      string  `arg:"positional,required" help:"positive class label"`
	ModelFile  string  `arg:"positional,required" help:"output path, or model name with --registry"`
	TrainDir   string  `arg:"positional,required" help:"directory of training images"`

	Kernel        string  `default:"poly" help:"poly or linear"`
	Degree        int     `default:"4" help:"polynomial degree"`
	Bias          float64 `default:"1" help:"polynomial bias"`
	Compression   string  `default:"zstd" help:"none, lz4 or zstd"`
	Codec         string  `default:"go-json" help:"json or go-json"`
	ProgressEvery int     `arg:"--progress-every" default:"1000" help:"iterations between progress lines"`
	Parallelism   int     `help:"scan goroutines, 0 for GOMAXPROCS"`
}

type classifyCmd struct {
	ModelFile string `arg:"positional,required" help:"model path, or model name with --registry"`
	TrainDir  string `arg:"positional,required" help:"directory holding the support images"`
	TestDir   string `arg:"positional,required" help:"directory of test images"`
	Class     string `arg:"positional,required" help:"positive class label"`
}

type args struct {
	Train    *trainCmd    `arg:"subcommand:train" help:"train a model"`
	Classify *classifyCmd `arg:"subcommand:classify" help:"evaluate a model on test images"`

	LogLevel string `arg:"--log-level" default:"info" help:"debug, info, warn or error"`
	JSONLogs bool   `arg:"--json-logs" help:"log as JSON"`
	Registry string `help:"publish to / load from a registry: dir, file://dir, s3://bucket/prefix or minio://endpoint/bucket/prefix"`
	DDBTable string `arg:"--ddb-table,env:KOZINEC_DDB_TABLE" help:"DynamoDB table for s3 registry commits"`
}

func (args) Description() string {
	return "Schlesinger–Kozinec kernel classifier"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, a, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "skm:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, a args, stdout io.Writer) error {
	logger, err := newLogger(a.LogLevel, a.JSONLogs)
	if err != nil {
		return err
	}

	switch {
	case a.Train != nil:
		return runTrain(ctx, a, logger, stdout)
	case a.Classify != nil:
		return runClassify(ctx, a, logger, stdout)
	default:
		return fmt.Errorf("missing subcommand")
	}
}

func newLogger(level string, json bool) (*kozinec.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if json {
		return kozinec.NewJSONLogger(lvl), nil
	}
	return kozinec.NewTextLogger(lvl), nil
}

func runTrain(ctx context.Context, a args, logger *kozinec.Logger, stdout io.Writer) error {
	cmd := a.Train

	k, err := kernel.Provider(cmd.Kernel, cmd.Degree, cmd.Bias)
	if err != nil {
		return err
	}
	persistOpts, err := persistenceOptions(cmd.Codec, cmd.Compression)
	if err != nil {
		return err
	}

	samples, err := dataset.LoadImages(ctx, blobstore.NewLocalStore(cmd.TrainDir), "",
		dataset.WithLoadParallelism(cmd.Parallelism))
	if err != nil {
		return err
	}
	pos, neg, err := dataset.Partition(samples, dataset.LabelIs(cmd.Class))
	if err != nil {
		return fmt.Errorf("class %q: %w", cmd.Class, err)
	}

	tr, err := kozinec.New(
		kozinec.WithEpsilon(cmd.Epsilon),
		kozinec.WithMaxUpdates(cmd.MaxUpdates),
		kozinec.WithKernel(k),
		kozinec.WithParallelism(cmd.Parallelism),
		kozinec.WithLabel(cmd.Class),
		kozinec.WithLogger(logger),
		kozinec.WithProgressInterval(cmd.ProgressEvery),
		kozinec.WithObserver(kozinec.NewLogObserver(logger, 0)),
	)
	if err != nil {
		return err
	}

	m, err := tr.Train(ctx, pos, neg)
	if err != nil {
		return err
	}

	if a.Registry != "" {
		store, err := openStore(ctx, a.Registry, a.DDBTable)
		if err != nil {
			return err
		}
		version, err := registry.New(store, persistOpts...).Publish(ctx, cmd.ModelFile, m)
		logger.LogSave(ctx, registry.VersionPath(cmd.ModelFile, version), err)
		if err != nil {
			return err
		}
	} else {
		dir, name := filepath.Split(cmd.ModelFile)
		if dir == "" {
			dir = "."
		}
		err := persistence.Save(ctx, blobstore.NewLocalStore(dir), name, m, persistOpts...)
		logger.LogSave(ctx, cmd.ModelFile, err)
		if err != nil {
			return err
		}
	}

	posSupport, negSupport := m.SupportIDs()
	fmt.Fprintf(stdout, "status=%s iterations=%d margin=%g support=%d/%d\n",
		m.Status, m.Iterations, m.Stats.Margin(), len(posSupport), len(negSupport))
	return nil
}

func runClassify(ctx context.Context, a args, logger *kozinec.Logger, stdout io.Writer) error {
	cmd := a.Classify

	m, err := loadModel(ctx, a, cmd.ModelFile)
	if err != nil {
		return err
	}

	train, err := dataset.LoadImages(ctx, blobstore.NewLocalStore(cmd.TrainDir), "")
	if err != nil {
		return err
	}
	pos, neg, err := dataset.Partition(train, dataset.LabelIs(cmd.Class))
	if err != nil {
		return fmt.Errorf("class %q: %w", cmd.Class, err)
	}

	clf, err := kozinec.NewClassifier(m, pos, neg)
	if err != nil {
		return err
	}

	test, err := dataset.LoadImages(ctx, blobstore.NewLocalStore(cmd.TestDir), "")
	if err != nil {
		return err
	}
	acc, err := clf.Evaluate(test, dataset.LabelIs(cmd.Class))
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "classified", "samples", acc.Total, "accuracy", acc.Rate())
	fmt.Fprintf(stdout, "accuracy=%.4f correct=%d total=%d tp=%d fp=%d tn=%d fn=%d\n",
		acc.Rate(), acc.Correct, acc.Total,
		acc.TruePositives, acc.FalsePositives, acc.TrueNegatives, acc.FalseNegatives)
	return nil
}

func loadModel(ctx context.Context, a args, name string) (*kozinec.Model, error) {
	if a.Registry != "" {
		store, err := openStore(ctx, a.Registry, a.DDBTable)
		if err != nil {
			return nil, err
		}
		return registry.New(store).Latest(ctx, name)
	}

	dir, base := filepath.Split(name)
	if dir == "" {
		dir = "."
	}
	return persistence.Load(ctx, blobstore.NewLocalStore(dir), base)
}

func persistenceOptions(codecName, compression string) ([]persistence.Option, error) {
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", codecName)
	}
	comp, err := persistence.ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	return []persistence.Option{persistence.WithCodec(c), persistence.WithCompression(comp)}, nil
}
