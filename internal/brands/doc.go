// Package brands extracts brand mentions from social text.
//
// Five matching passes (direct, hashtag, handle, fuzzy, entity) run
// independently against lookup indices built from brand profiles; results are
// unioned and deduplicated by (brand, position) keeping the highest
// confidence. Profiles can be added at runtime; each addition rebuilds the
// indices under a write lock.
package brands
