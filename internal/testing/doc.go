// Package testing runs the board QA suite: YAML scenarios whose steps call
// the REST API, the web UI and the Android app, and check the results.
//
// # Architecture Overview
//
//	                ┌──────────────────┐
//	                │ boardcheck test  │ (CLI Command)
//	                │   (cmd/test.go)  │
//	                └────────┬─────────┘
//	                         │
//	                ┌────────▼─────────┐
//	                │    TestRunner    │ (worker pool, fail-fast)
//	                └────────┬─────────┘
//	                         │ one Environment per scenario
//	        ┌────────────────┼─────────────────┐
//	        │                │                 │
//	┌───────▼──────┐  ┌──────▼───────┐  ┌──────▼──────┐
//	│ActionRegistry│  │ScenarioLoader│  │  Reporter   │
//	│ board/web/   │  │ YAML, embed  │  │console/json/│
//	│ mobile/flow  │  │              │  │ structured  │
//	└──────────────┘  └──────────────┘  └─────────────┘
//
// # Scenarios
//
// A scenario names the UI channels it needs (web, mobile). The runner opens
// those sessions before the first step and quits them after the cleanup
// steps, which always run. When a scenario fails, a screenshot of the
// active session is written before the sessions are closed.
//
//	name: api-board-rename
//	category: api
//	tags: [api, regression]
//	steps:
//	  - id: create-board
//	    action: board.create
//	    args:
//	      name: "{{ boardName }}"
//	    store: created
//	    expected:
//	      success: true
//	  - id: rename-board
//	    action: board.update_name
//	    args:
//	      id: "{{ .created.id }}"
//	      name: "{{ .created.name }}-UPDATED"
//	    expected:
//	      success: true
//	      fields:
//	        name: "{{ .created.name }}-UPDATED"
//	cleanup:
//	  - id: delete-board
//	    action: board.delete
//	    args:
//	      id: "{{ .created.id }}"
//	    expected:
//	      success: true
//
// Step arguments and expected fields are Go templates with the sprig
// function set plus boardName and millis. Results stored with "store" are
// available to later steps as .<name>.
//
// # Expectations
//
//   - success: whether the action must return without error
//   - error_contains, contains, not_contains: case-insensitive text checks
//   - fields: equality on top-level fields of the result
//   - status_code: the result's status field or the HTTP status of a board error
//   - observed: the outcome of a UI probe
//   - wait_for_state: re-run the action until the expectation holds
//
// The scenarios compiled into the binary live in scenarios/ and are used
// when no --scenarios path is given.
package testing
