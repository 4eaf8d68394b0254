/*
Package monitor implements the single-slot monitor supervisor:
idle/polling/ingesting/error state machine from spec.md §4.6, grounded
on original_source/backend/services/monitor_manager.py's
MonitorManager (its _run_loop is the direct source for runLoop, with
LiveTwitchSource/LiveArchiveVODSource swapped for the archive-follower
per spec.md's authoritative source).

Supervisor implements suture.Service (Serve(ctx) error) so it can be
hosted in the same suture.Supervisor tree as the HTTP server, matching
cartographus's internal/supervisor.SupervisorTree pattern — but suture
only supervises the process's lifecycle here. The single-slot FSM
itself is a hand-rolled, mutex-protected worker goroutine started by
Start and stopped by Stop, exactly as spec.md §5's concurrency model
requires: exactly one worker at a time, guarded independently of
whatever's supervising the process.
*/
package monitor
