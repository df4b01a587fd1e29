package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"
)

// Referrals prints the caller's referrals, oldest first.
func (a *App) Referrals(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	refs, err := a.api.Referrals(ctx, a.token)
	if err != nil {
		return a.dropExpired(ctx, err)
	}

	if len(refs) == 0 {
		printlnFn("No referrals yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERRED USER\tSTATUS\tDATE")
	for _, r := range refs {
		user := "-"
		if r.ReferredUserID != nil {
			user = strconv.FormatInt(*r.ReferredUserID, 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, user, r.Status, r.DateReferred.Local().Format(time.DateTime))
	}
	return w.Flush()
}

// Stats prints the number of successful referrals.
func (a *App) Stats(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	n, err := a.api.ReferralCount(ctx, a.token)
	if err != nil {
		return a.dropExpired(ctx, err)
	}

	printlnFn("Successful referrals:", n)
	return nil
}
