// Package research answers market questions with a conditional retrieval workflow.
//
// Each turn runs a small graph: the question is classified, live web data and
// encyclopedic background are retrieved when the classifier asks for it, and the answer
// is generated from the retrieved context and the session history. The turn is then
// appended to the session store in a single write.
//
//	classify ──(needs search)──> retrieve_web ──> retrieve_knowledge ──> synthesize ──> END
//	    └──────────(no search)──────────────────────────────────────────────┘
//
// Assistant.RunTurn returns the complete answer; Assistant.RunTurnStreaming delivers the
// same answer as a sequence of events. Both are produced by one model call.
package research
