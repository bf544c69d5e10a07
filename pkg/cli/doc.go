// Package cli implements the protodoc command line interface.
//
// # Commands
//
// generate: render pages for the configured proto files and publish them to
// the output directory and, when enabled, to S3 and a database table
//
//	protodoc generate -I proto -out site -format markdown -format html \
//		acme/greet/v1/greeter.proto
//
// serve: render pages on demand over HTTP, optionally reloading the sources
// on a cron schedule
//
//	protodoc serve -addr :8080 -refresh "*/5 * * * *"
//
// watch: regenerate whenever a proto file below an import path changes
//
//	protodoc watch -I proto -delay 1s
//
// resolve: show what a comment reference resolves to
//
//	protodoc resolve -ref "SayHello()" -from acme.greet.v1.Greeter
//
// Every command reads protodoc.yaml (see package config) and accepts -config,
// -dir, -I and -log-level. Proto files given as arguments replace the
// configured inputs.
package cli
