// Package cds provides a client for the vendor Content Delivery Service (CDS),
// a static tree of HTML directory listings: product versions, then build numbers,
// then platform and component folders holding the downloadable archives.
// It resolves versions and builds from the listings, caches listings per URL,
// and streams archives with a browser-like User-Agent.
package cds
