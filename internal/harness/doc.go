// Package harness runs YAML scenarios against the domain service.
//
// A scenario is a list of steps, each naming a domain operation, the
// principal performing it and its arguments. The harness executes every
// step on a fresh in-memory store with a deterministic clock and sequential
// ids, records a trace of outcomes and delivered notifications, and
// evaluates the scenario's assertions against the final database state.
//
// # Scenario Format
//
//	name: core_flow
//	description: two users connect, chat and get alerted
//	classifier:
//	  "I know where you live": {level: critical, type: stalking}
//	steps:
//	  - op: register_user
//	    args: {name: User A, email: a@x.com, phone: "+1000"}
//	    save: a
//	  - op: send_connection_request
//	    as: a
//	    args: {to: $b}
//	    expect: {outcome: ok}
//	assertions:
//	  - type: row_count
//	    table: notifications
//	    where: {user_id: $a}
//	    count: 2
//
// Strings starting with "$" refer to ids saved by earlier steps. The "as"
// field names a saved alias, or is used verbatim when no alias matches
// (verifier principals, for example).
//
// # Golden Files
//
// RunWithGolden renders the trace as text and compares it with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
