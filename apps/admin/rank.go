package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/match"
)

const nameColumnWidth = 40

// rank prints the best matching universities of a user as a table.
func (cli *commandLine) rank(email, preset string, limit int) error {
	ctx := context.Background()
	usr, err := cli.users.GetByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}

	res, err := cli.match.Rank(ctx, usr.ID, match.RankRequest{
		Page:    core.Page{Number: 1, Size: limit},
		Options: match.Options{Preset: preset},
	})
	if err != nil {
		return err
	}
	results, _ := res.Items.([]match.Result)

	fmt.Fprintf(cli.out, "%d universities ranked for %s (%s)\n", res.Total, usr.Email, res.Precision)
	fmt.Fprintln(cli.out, row("#", "UNIVERSITY", "SCORE", "LABEL", "NET PRICE"))
	for i, r := range results {
		fmt.Fprintln(cli.out, row(
			strconv.Itoa(i+1),
			r.UniversityName,
			strconv.FormatFloat(r.Overall, 'f', -1, 64),
			r.Label,
			formatPrice(r.NetPrice),
		))
	}
	return nil
}

// row lays out a table row; names are truncated by display width so wide characters stay aligned.
func row(rank, name, score, label, price string) string {
	name = runewidth.Truncate(name, nameColumnWidth, "…")
	return strings.Join([]string{
		runewidth.FillLeft(rank, 3),
		runewidth.FillRight(name, nameColumnWidth),
		runewidth.FillLeft(score, 5),
		runewidth.FillRight(label, 9),
		runewidth.FillLeft(price, 9),
	}, "  ")
}

func formatPrice(price *float64) string {
	if price == nil {
		return "-"
	}
	return "$" + strconv.FormatFloat(*price, 'f', 0, 64)
}
