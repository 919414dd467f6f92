/*
 * Copyright (c) SAS Institute Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package verifycmd

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sassoftware/apktrust/cmdline/shared"
	"github.com/sassoftware/apktrust/lib/trust"
	"github.com/sassoftware/apktrust/verifier"
)

var VerifyCmd = &cobra.Command{
	Use:   "verify FILE...",
	Short: "Report the trust code of one or more packages",
	RunE:  verifyCmd,
}

var (
	argJobs         int
	argManifestURLs []string
	argMetricsFile  string
	argQuiet        bool
)

func init() {
	shared.RootCmd.AddCommand(VerifyCmd)
	VerifyCmd.Flags().IntVarP(&argJobs, "jobs", "j", runtime.NumCPU(), "Number of packages to verify concurrently")
	VerifyCmd.Flags().StringArrayVar(&argManifestURLs, "manifest-url", nil, "Locate a package from its manifest resource URL (file:PATH!/AndroidManifest.xml)")
	VerifyCmd.Flags().StringVar(&argMetricsFile, "metrics-file", "", "Write prometheus metrics to this file when done")
	VerifyCmd.Flags().BoolVarP(&argQuiet, "quiet", "q", false, "Only set the exit status")
}

// ErrUntrusted is returned when at least one package is not recognized
var ErrUntrusted = errors.New("1 or more packages are not trusted")

func verifyCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(argManifestURLs) == 0 {
		return errors.New("Expected 1 or more files")
	}
	if err := shared.InitConfig(); err != nil {
		return err
	}
	cfg := shared.CurrentConfig
	v := verifier.New(cfg.TrustTable(), log.Logger)
	var sources []source
	for _, path := range args {
		sources = append(sources, source{name: path, src: verifier.StaticPath(path)})
	}
	for _, u := range argManifestURLs {
		sources = append(sources, source{name: u, src: verifier.ManifestURLSource(u)})
	}
	codes := verifyAll(v, sources, argJobs)
	if !argQuiet {
		printCodes(cmd.OutOrStdout(), cfg.TrustTable(), sources, codes)
	}
	metricsFile := argMetricsFile
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}
	if err := shared.WriteMetrics(metricsFile); err != nil {
		return err
	}
	for _, code := range codes {
		if code == trust.Untrusted {
			return ErrUntrusted
		}
	}
	return nil
}

type source struct {
	name string
	src  verifier.PathSource
}

// verifyAll checks each source with at most jobs running at once. Results are
// in the same order as sources.
func verifyAll(v *verifier.Verifier, sources []source, jobs int) []trust.Code {
	codes := make([]trust.Code, len(sources))
	var eg errgroup.Group
	if jobs > 0 {
		eg.SetLimit(jobs)
	}
	for i, s := range sources {
		i, s := i, s
		eg.Go(func() error {
			codes[i] = v.VerifySource(s.src)
			return nil
		})
	}
	_ = eg.Wait()
	return codes
}

func printCodes(w io.Writer, table *trust.Table, sources []source, codes []trust.Code) {
	for i, s := range sources {
		code := codes[i]
		if name := table.Name(code); name != "" {
			fmt.Fprintf(w, "%s %d %s\n", s.name, code, name)
		} else {
			fmt.Fprintf(w, "%s %d\n", s.name, code)
		}
	}
}
