package main

import (
	"github.com/joeydtaylor/ppdb-gateway/pkg/serverfx"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		serverfx.Module(serverfx.Options{
			Service:         "ppdb",
			ManifestEnv:     "PPDB_MANIFEST",
			DefaultManifest: "manifest.toml",
			TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
			TLSKeyEnv:       "SSL_SERVER_KEY",
		}),
	).Run()
}
