// Package rpc implements the named server functions callable through
// POST /rpc/{company}/{function}.
//
// Each function declares the minimum role allowed to call it and the tables
// it writes. Arguments are decoded from JSON into a per-function struct,
// validated, and the function body runs inside a single database
// transaction. Multi-step operations such as replacing an access group's
// members therefore either apply completely or not at all.
//
// # Usage
//
//	exec := rpc.NewExecutor(db, rpc.Builtins())
//	res, err := exec.Call(ctx, id, "complete_lesson", []byte(`{"lesson_id":"..."}`))
//	if errors.Is(err, rpc.ErrInsufficientCoins) {
//	    // Handle overdraft
//	}
package rpc
