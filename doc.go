// Package htmlatex renders the equations embedded in an HTML document into
// PNG images and rewrites the document to reference them.
//
// # Quick Start
//
// Create a renderer and pass it documents:
//
//	r, err := htmlatex.NewRenderer(htmlatex.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := r.Render(ctx, `<p>Area: <span class="eq">x^2</span></p>`)
//	// out: <p>Area: <img src="/images/3/3f...png" /></p>
//
// Serve the image root (Config.ImageRootDirectory) under Config.ImageURLPrefix
// so the rewritten img tags resolve.
//
// # Equation Markup
//
// Inline equations are span elements, display equations are div elements.
// The class attribute selects the LaTeX template:
//
//	span: eq, det, matrix
//	div:  eq, det, matrix, alignedeq, numalignedeq, numeq
//
// # Rendering Pipeline
//
// For each equation:
//
//  1. The element's serialized markup is hashed (SHA-256) into a cache key
//  2. If <image root>/<first hex digit>/<key>.png exists, it is reused
//  3. Otherwise the content is wrapped in its template, screened against a
//     blocklist of dangerous TeX constructs, compiled with latex and
//     rasterized with dvipng
//  4. The PNG is renamed into the cache atomically
//
// A document with no equations is returned unchanged. Any equation failure
// fails the whole document.
//
// # Configuration
//
// Static settings live in Config; runtime collaborators are options:
//
//	r, err := htmlatex.NewRenderer(cfg,
//	    htmlatex.WithLogger(logger),
//	    htmlatex.WithConcurrency(4),
//	    htmlatex.WithTimeout(time.Minute),
//	)
//
// # Toolchain Requirements
//
// Rendering requires a TeX distribution providing latex and dvipng with the
// amsmath, amssymb, mathrsfs, gensymb and preview packages. Every invocation
// runs in its own process group with a timeout; on timeout the whole group
// is killed and a *TimeoutError is returned.
package htmlatex
