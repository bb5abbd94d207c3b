// Package dictionary maintains the versioned mapping from (avatar model,
// normalized token) to pre-recorded sign clips. Resolution happens against
// immutable snapshots so concurrent readers never observe a partial update.
package dictionary
