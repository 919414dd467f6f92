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

package dumpcmd

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sassoftware/apktrust/cmdline/shared"
	"github.com/sassoftware/apktrust/lib/apksig"
	"github.com/sassoftware/apktrust/verifier"
)

var DumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Show the signing structures of a package",
	RunE:  dumpCmd,
}

func init() {
	shared.RootCmd.AddCommand(DumpCmd)
}

// well-known signing block entries
var pairNames = map[uint32]string{
	apksig.SigApkV2: "APK Signature Scheme v2",
	0xf05368c0:      "APK Signature Scheme v3",
	0x1b93ad61:      "APK Signature Scheme v3.1",
	0x42726577:      "verity padding",
	0x6dff800d:      "source stamp",
	0x504b4453:      "dependency info",
}

func dumpCmd(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Expected exactly 1 file")
	}
	if err := shared.InitConfig(); err != nil {
		return err
	}
	v := verifier.New(shared.CurrentConfig.TrustTable(), log.Logger)
	return dumpFile(cmd.OutOrStdout(), v, args[0])
}

func dumpFile(w io.Writer, v *verifier.Verifier, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	res, err := v.Inspect(f, fi.Size())
	dump(w, path, res)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func dump(w io.Writer, path string, res *verifier.Result) {
	fmt.Fprintf(w, "%s: %s\n", path, humanize.IBytes(uint64(res.Size)))
	if res.End == nil {
		return
	}
	fmt.Fprintf(w, "end of central directory at %d:\n", res.EndOffset)
	fmt.Fprintf(w, "  entries:   %d\n", res.End.TotalCDCount)
	fmt.Fprintf(w, "  directory: %s at %d\n", humanize.IBytes(uint64(res.End.CDSize)), res.End.CDOffset)
	fmt.Fprintf(w, "  comment:   %d bytes\n", res.End.CommentLen)
	if res.Block == nil {
		return
	}
	fmt.Fprintf(w, "signing block at %d: %s\n", res.Block.MagicOffset+16-int64(res.Block.Size), humanize.IBytes(res.Block.Size))
	for _, pair := range res.Pairs {
		name := pairNames[pair.ID]
		if name == "" {
			name = "unknown"
		}
		fmt.Fprintf(w, "  0x%08x %s (%s)\n", pair.ID, humanize.IBytes(uint64(len(pair.Value))), name)
	}
	if res.Certificate == nil {
		return
	}
	fmt.Fprintf(w, "certificate: %s\n", humanize.IBytes(uint64(len(res.Certificate))))
	if cert, err := x509.ParseCertificate(res.Certificate); err == nil {
		fmt.Fprintf(w, "  subject:   %s\n", cert.Subject)
		fmt.Fprintf(w, "  issuer:    %s\n", cert.Issuer)
		fmt.Fprintf(w, "  not after: %s\n", cert.NotAfter.UTC().Format("2006-01-02"))
	}
	fmt.Fprintf(w, "  digest:    %s\n", digest.FromBytes(res.Certificate))
	fmt.Fprintf(w, "fingerprint: %s\n", res.Fingerprint)
	fmt.Fprintf(w, "trust code:  %d\n", res.Code)
}
