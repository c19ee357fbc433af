package vectorindex

// IVF (inverted file) partitioning narrows an ADC scan to the handful of
// coarse-quantizer cells nearest the query vector instead of scanning
// every persisted code, trading a small recall loss for sublinear search
// as an index grows past brute-force-friendly sizes.
//
// This backend is intentionally unimplemented: it needs a coarse
// quantizer trained and persisted alongside the existing PQ codebooks,
// a per-cell posting list layout in the key space, and a query-time
// cell-selection step, none of which the current callers exercise yet.
// PQIndex's brute-force scan is the correctness baseline; build this
// once an index grows large enough that brute force shows up in
// profiles.
