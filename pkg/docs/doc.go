// Package docs turns an API model into documentation pages.
//
// # Overview
//
// A Documenter decides which entities get a page of their own (packages,
// messages, enums and services declared in the requested files), assigns
// each a file name and renders pages by building a docnode tree and handing
// it to an emitter. Fields, oneofs, enum values and methods are documented
// on the page of their enclosing entity.
//
// # Rendering
//
//	model, err := apimodel.Load(ctx, apimodel.LoadOptions{
//		ImportPaths: []string{"proto"},
//		Files:       []string{"acme/greet/v1/greeter.proto"},
//	})
//	d := docs.NewDocumenter(model, docs.Options{Format: docs.FormatMarkdown}, logger, metrics)
//	pages, err := d.RenderAll(ctx)
//
// RenderAll renders pages concurrently. Each page owns its emitter context,
// so warnings about unresolved references are reported per page.
//
// # Formats
//
// Pages are written as Markdown. FormatHTML additionally converts each page
// with goldmark and wraps it in a standalone HTML document. FlavorHTML keeps
// Markdown output but writes headings, tables and note boxes as raw HTML.
//
// # Serving
//
// A Site holds the current Documenter and renders pages on demand through a
// PageCache, either in process (MemoryCache) or shared between replicas
// (RedisCache). Swapping in a new Documenter invalidates cached pages.
// NewServerHandler exposes the site over HTTP:
//
//	GET /                     redirect to the index page
//	GET /pages/{file}         a rendered page
//	GET /api/entities         documented entities as JSON
//	GET /api/resolve?ref=&from=  resolve a symbolic reference
//	GET /health/live, /health/ready, /metrics
package docs
