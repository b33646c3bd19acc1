package main

import (
	"github.com/jchantrell/rsbconv/internal/converter"
	"github.com/jchantrell/rsbconv/internal/executor"
	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/rsb"
	"github.com/jchantrell/rsbconv/internal/scg"
	"github.com/jchantrell/rsbconv/internal/workspace"
)

// newConverter builds the converter from the loaded configuration.
func newConverter() *converter.Converter {
	return converter.New(rsb.NewCodec(), scg.NewCodec(),
		converter.WithGroupSetting(cfg.GroupSetting()),
		converter.WithOnlyHighResolution(cfg.OnlyHighResolution),
	)
}

// buildTable registers every method and seals the table.
func buildTable(conv *converter.Converter, target platform.Platform, ws *workspace.Workspace, done converter.DoneFunc) (*executor.Table, error) {
	fn := conv.JobFunc(target, ws.Prepare, done)

	table := executor.NewTable()
	err := table.Register(converter.MethodID, "Convert a bundle to the "+target.String()+" platform",
		executor.DirectVariant{Fn: fn},
		executor.BatchVariant{Fn: fn, Filter: rsb.IsBundleFile, ContinueOnError: cfg.ContinueOnError},
		executor.ParallelVariant{Fn: fn, Workers: cfg.Jobs, ContinueOnError: cfg.ContinueOnError},
	)
	if err != nil {
		return nil, err
	}

	table.Seal()
	return table, nil
}
