package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var contracts = cli.Command{
	Name:   "contracts",
	Usage:  "list known contracts with the caller's balances",
	Action: listAction("/v1/contracts"),
}

var interfaces = cli.Command{
	Name:   "interfaces",
	Usage:  "list the contract interfaces supported by the daemon",
	Action: listAction("/v1/interfaces"),
}

var schemas = cli.Command{
	Name:   "schemas",
	Usage:  "list the contract schemas supported by the daemon",
	Action: listAction("/v1/schemas"),
}

var invoices = cli.Command{
	Name:   "invoices",
	Usage:  "list the invoices created by the caller",
	Action: listAction("/v1/invoices"),
}

var transfers = cli.Command{
	Name:   "transfers",
	Usage:  "list the transfers created by the caller",
	Action: listAction("/v1/transfers"),
}

func listAction(apiPath string) cli.ActionFunc {
	return func(c *cli.Context) error {
		payload, err := request(http.MethodGet, apiPath, nil)
		if err != nil {
			return err
		}

		printRespJSON(payload)
		return nil
	}
}
