package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var invoice = cli.Command{
	Name:  "invoice",
	Usage: "create a payment request for an asset amount",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "contract_id",
			Usage:    "id of the contract to be paid with",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "iface",
			Usage: "contract interface",
			Value: "SPA20",
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "requested amount in asset units, eg. 2.50",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "seal",
			Usage:    "seal descriptor closemethod:txid:vout of an owned output",
			Required: true,
		},
	},
	Action: invoiceAction,
}

func invoiceAction(c *cli.Context) error {
	payload, err := request(http.MethodPost, "/v1/invoice", map[string]interface{}{
		"contract_id": c.String("contract_id"),
		"iface":       c.String("iface"),
		"amount":      c.String("amount"),
		"seal":        c.String("seal"),
	})
	if err != nil {
		return err
	}

	printRespJSON(payload)
	return nil
}
