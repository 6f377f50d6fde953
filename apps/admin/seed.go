package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	appfs "github.com/Benouakrim/Academora-02-sub002/fs"
)

const defaultSeedFile = "seed/universities.yaml"

// seed imports a university catalogue. Universities whose slug already exists are skipped.
func (cli *commandLine) seed(file string) error {
	var data []byte
	var err error
	if file == "" {
		data, err = appfs.FS.ReadFile(defaultSeedFile)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return errors.Wrap(err, "reading catalogue")
	}

	catalogue, err := university.ParseSeed(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var created, skipped int
	for _, attrs := range catalogue {
		if _, err = cli.universities.Get(ctx, core.Slugify(attrs.Name)); err == nil {
			skipped++
			continue
		} else if err != university.ErrNotFound {
			return err
		}
		if _, err = cli.universities.Import(ctx, attrs); err != nil {
			return errors.Wrapf(err, "importing %q", attrs.Name)
		}
		created++
	}
	fmt.Fprintf(cli.out, "%d universities imported, %d skipped\n", created, skipped)
	return nil
}
