// Package harness runs YAML compile scenarios against the expression
// compiler and the statement assembler.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: students
//	description: "Student predicates"
//	schema: ../schema          # optional CUE entity directory
//	dialect: sqlite            # default dialect of every case
//	entities:
//	  - type: Student
//	    fields:
//	      - { member: Cource, key: true, kind: int }
//	      - { member: FirstName, column: first_name, kind: string }
//	cases:
//	  - name: starts_with
//	    entity: Student
//	    kind: predicate
//	    expr: 'e => e.FirstName.StartsWith("Iv")'
//	    want: "first_name like 'Iv%'"
//	  - name: unknown_member
//	    entity: Student
//	    kind: predicate
//	    expr: "e => e.Missing == 1"
//	    error: UNKNOWN_FIELD
//
// # Case Kinds
//
//   - predicate: compile expr as a WHERE fragment
//   - order: compile an OrderBy chain
//   - scalar: compile an aggregate projection
//   - select: assemble a full SELECT from expr (where), order and limit
//   - count: assemble SELECT COUNT(1) from expr (where)
//
// Every case states either the expected SQL (want, optionally want_params)
// or the expected error code (error).
//
// # Golden Files
//
// RunWithGolden writes the outcomes of every case as canonical JSON to
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
