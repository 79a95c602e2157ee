// Package sentiment implements the ensemble sentiment engine.
//
// Models are pluggable classifiers keyed by name; two deterministic built-ins
// (lexicon, pattern) ship with the package. When several models are requested
// their results are combined by confidence-weighted averaging. A failing model
// is excluded from the ensemble; if every model fails the engine degrades to a
// neutral zero-confidence judgment instead of returning an error.
package sentiment
