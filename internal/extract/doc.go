// Package extract turns fetched page bodies into typed crawl output.
//
// Each supported site has an adapter (UltimateGuitar, Wywrota) that knows
// the site's seed URLs and how to classify a fetched page as either more
// page refs or terminal song records. Extraction is a pure function of
// the ref and the body: no network I/O, no retries, no shared state.
//
// Design decision: Payloads are decoded into explicit structs at this
// boundary rather than walked as untyped maps. Any missing or mistyped
// field funnels into the single ErrMalformedPage path, which the fetch
// loop treats as transient.
package extract
