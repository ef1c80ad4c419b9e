// Package store provides the SQLite-backed Entity Store.
//
// The store holds the thirteen entity tables of the safety backend and is the
// last line of defense for their integrity: the schema repeats every rule the
// integrity layer checks in Go, so a bug above cannot persist a row that
// violates them.
//
// # Constraints
//
//   - UNIQUE: users(email), users(phone), user_connections(requester_id,
//     requested_id) plus the unordered pair index, conversations(participant_1_id,
//     participant_2_id), reviews(reviewer_id, professional_id),
//     user_settings(user_id), professional_profiles(user_id)
//   - CHECK: every enumerated column and numeric range
//   - FOREIGN KEY: ON DELETE CASCADE from users to everything they own,
//     conversations to messages, professional_profiles to reviews;
//     ON DELETE SET NULL from threat_detections to evidence
//   - TRIGGER: message senders must be participants, evidence hashes are
//     immutable, professional verification is one-way
//
// Constraint failures are returned as *ConstraintError so callers can map them
// to domain errors without parsing driver messages themselves.
//
// # Transactions
//
// All reads and writes go through WithTx. The pool holds a single connection
// (SQLite has one writer), so transactions are serialized and every domain
// operation sees a consistent snapshot from its first read to its commit.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
