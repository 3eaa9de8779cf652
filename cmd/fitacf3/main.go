// Command fitacf3 is the CLI front end for the signal-fitting core
// (spec.md 6): "convert <infile> <outfile>" reads a raw ACF/XCF file and writes
// a fitted file, exiting 0 on success or 1 with a diagnostic on the
// first error.
//
// Modeled on github.com/sixy6e/go-gsf's cmd/main.go command structure
// (convert / convert-trawl), retargeted at FITACF v3 records.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/alitto/pond"
	"github.com/urfave/cli/v2"

	"github.com/sdarn/fitacf3"
	"github.com/sdarn/fitacf3/dmap"
	"github.com/sdarn/fitacf3/hdw"
	"github.com/sdarn/fitacf3/search"
)

func convertOne(infile, outfile string, repo *hdw.Repository) error {
	in, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outfile)
	if err != nil {
		return err
	}
	defer out.Close()

	dec := dmap.NewDecoder(in)
	enc := dmap.NewEncoder(out)

	var records []*fitacf3.RawRecord
	for {
		raw, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		rec, err := dmap.ToRawRecord(raw)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return fmt.Errorf("no records decoded from %s", infile)
	}

	results, dispatchErr := fitacf3.FitParallel(records, repo, runtime.NumCPU())
	for i, result := range results {
		if result.Err != nil {
			continue
		}
		outRec := dmap.FromFittedRecord(result.Record, records[i])
		if err := enc.Write(outRec, 1); err != nil {
			return err
		}
	}
	return dispatchErr
}

func convertTrawl(uri, configURI, outdirURI string, repo *hdw.Repository) error {
	files, err := search.FindRawacf(uri, configURI)
	if err != nil {
		return err
	}
	log.Println("files to process:", len(files))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n := runtime.NumCPU() * 2
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	for _, name := range files {
		name := name
		pool.Submit(func() {
			outfile := name + ".fitacf"
			if outdirURI != "" {
				outfile = outdirURI + "/" + outfile
			}
			if err := convertOne(name, outfile, repo); err != nil {
				log.Printf("error fitting %s: %v", name, err)
			}
		})
	}
	return nil
}

func main() {
	repo, err := hdw.NewRepository()
	if err != nil {
		log.Fatalf("loading hdw data: %v", err)
	}

	app := &cli.App{
		Name:  "fitacf3",
		Usage: "fit raw ACF/XCF records to geophysical parameters",
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "fit a single raw file",
				ArgsUsage: "<infile> <outfile>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("expected <infile> <outfile>")
					}
					return convertOne(c.Args().Get(0), c.Args().Get(1), repo)
				},
			},
			{
				Name:  "convert-trawl",
				Usage: "fit every raw file found under a URI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Required: true},
					&cli.StringFlag{Name: "config-uri"},
					&cli.StringFlag{Name: "outdir-uri"},
				},
				Action: func(c *cli.Context) error {
					return convertTrawl(c.String("uri"), c.String("config-uri"), c.String("outdir-uri"), repo)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
