// Package memory holds map-backed repositories with the same uniqueness
// guarantees as the SQL schema. Used for tests and for storage.driver=memory.
package memory

import "github.com/ds124wfegd/eshikshan/internal/database"

var (
	_ database.PostingRepository      = (*PostingRepository)(nil)
	_ database.SubmissionRepository   = (*SubmissionRepository)(nil)
	_ database.NotificationRepository = (*NotificationRepository)(nil)
)
