// Package config loads protodoc configuration.
//
// # Sources
//
// Settings are read, in increasing precedence, from built in defaults, a
// YAML file and PROTODOC_* environment variables. Without an explicit path
// the first of protodoc.yaml, protodoc.yml and .protodoc.yaml found in the
// working directory is used. Relative paths in the file are resolved against
// the file's directory.
//
//	title: Acme APIs
//	inputs:
//	  import_paths: [proto]
//	  files: [acme/greet/v1/greeter.proto]
//	output:
//	  directory: site
//	  formats: [markdown, html]
//	  flavor: markdown
//	  blank_line_before_table: true
//	  clean: true
//	publish:
//	  s3:
//	    enabled: true
//	    bucket: acme-docs
//	    prefix: api
//	  database:
//	    enabled: true
//	    driver: postgres
//	    dsn: postgres://docs@localhost/docs?sslmode=disable
//	serve:
//	  addr: ":8080"
//	  cache_ttl: 10m
//	  redis_addr: localhost:6379
//	  refresh_schedule: "*/5 * * * *"
//	observability:
//	  log_level: debug
//	  otel_enabled: false
//
// # Environment
//
//	PROTODOC_IMPORT_PATHS="proto,third_party"
//	PROTODOC_FILES="acme/greet/v1/greeter.proto"
//	PROTODOC_OUTPUT_DIR="site"
//	PROTODOC_FORMATS="markdown,html"
//	PROTODOC_S3_BUCKET="acme-docs"
//	PROTODOC_DB_DSN="file:docs.db"
//	PROTODOC_REDIS_ADDR="localhost:6379"
//	PROTODOC_LOG_LEVEL="debug"
//	PROTODOC_OTEL_ENABLED="true"
package config
