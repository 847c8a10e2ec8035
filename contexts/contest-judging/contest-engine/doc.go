// Package contestengine implements the contest lifecycle and scoring
// aggregation engine inside the contest-judging context.
//
// The module owns contests, entrant submissions, judge assignments and judge
// scores. Every mutation of a contest runs inside that contest's repository
// scope, which serializes it against other mutations of the same contest and
// re-checks the entity invariants before committing. Finalization aggregates
// the recorded scores into rounded final scores and a tie-broken ranking.
// Notifications are produced from outbox-backed events by the workers.
package contestengine
