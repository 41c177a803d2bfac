// Package analysis summarises the lowest-height trace of a stored run.
//
//   - [Summarize]: landing time, bounce count and settle time
//   - [PowerSpectrum]: magnitude spectrum of a trace
//   - [DominantFrequency]: strongest non-DC frequency in hz
//
// Traces are sampled every dt from t=0, as written by storage.
package analysis
