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

package fixturecmd

import (
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sassoftware/apktrust/cmdline/shared"
	"github.com/sassoftware/apktrust/lib/apksig"
	"github.com/sassoftware/apktrust/lib/atomicfile"
	"github.com/sassoftware/apktrust/lib/zipslicer"
)

var FixtureCmd = &cobra.Command{
	Use:    "mkfixture OUTPUT",
	Short:  "Write an empty package carrying a v2 signing block for the given certificate",
	RunE:   fixtureCmd,
	Hidden: true,
}

var argCert string

func init() {
	shared.RootCmd.AddCommand(FixtureCmd)
	FixtureCmd.Flags().StringVar(&argCert, "cert", "", "Certificate to embed (PEM or DER)")
}

func fixtureCmd(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Expected an output file")
	} else if argCert == "" {
		return errors.New("--cert is required")
	}
	certs, err := readCerts(argCert)
	if err != nil {
		return err
	}
	return writeFixtureFile(args[0], certs)
}

// writeFixtureFile replaces path only once the whole fixture is written
func writeFixtureFile(path string, certs [][]byte) error {
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteFixture(f, certs); err != nil {
		return err
	}
	return f.Commit()
}

func readCerts(path string) ([][]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var certs [][]byte
	rest := blob
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			certs = append(certs, block.Bytes)
		}
	}
	if len(certs) == 0 {
		// not PEM, use as-is
		certs = append(certs, blob)
	}
	return certs, nil
}

// WriteFixture writes a zip with an empty central directory, preceded by a
// signing block whose v2 signer carries certs.
func WriteFixture(w io.Writer, certs [][]byte) error {
	signers := apksig.MarshalSignersV2([]apksig.SignerV2{{Certificates: certs}})
	block := apksig.MakeSigningBlock([]apksig.IDPair{{ID: apksig.SigApkV2, Value: signers}})
	if uint64(len(block)) > 0xffffffff {
		return fmt.Errorf("signing block of %d bytes is too large", len(block))
	}
	end := &zipslicer.EndRecord{CDOffset: uint32(len(block))}
	if _, err := w.Write(block); err != nil {
		return err
	}
	_, err := w.Write(end.Bytes())
	return err
}
