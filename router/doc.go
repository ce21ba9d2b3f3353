// Package router orchestrates one interaction cycle per incoming event:
// record the event, update affect and drives, trigger consolidation when due,
// and request fusion. Turns for a session execute strictly in arrival order;
// an event arriving while a turn or consolidation is in flight waits in a
// bounded FIFO queue. A cancelled turn keeps its memory append (writes are
// not speculative) and only aborts the ContextBundle production.
package router
