package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/eugenenazirov/mlflow-aws/internal/packaging"
)

func (c *commands) lambdaPackage(dir, target string) int {
	if err := packaging.ZipFile(dir, target); err != nil {
		return c.fail(1, "Unable to package %s: %v", dir, err)
	}
	files, err := packaging.Files(dir)
	if err != nil {
		return c.fail(1, "Unable to package %s: %v", dir, err)
	}
	c.app.Logger().Debug("lambda package written", zap.String("dir", dir), zap.Strings("files", files))
	fmt.Fprintf(c.stdout, "Packaged %d files from %s into %s (handler %s)\n", len(files), dir, target, packaging.Handler)
	return 0
}
