// Package worker hosts a dedicated-thread cooperative event loop with a
// lifecycle: Created, Starting, Running, Stopping, Stopped. Start runs the
// loop (via package loop) on a goroutine of its own and, if given a run
// function, invokes it on the calling goroutine with a stop handle so the
// caller's own polling logic shares the worker's shutdown signal. QueueTask posts a task onto the
// running loop and tracks its outcome in Stats, mirroring the accounting a
// task-queue worker keeps for processed/failed/active counts.
package worker
