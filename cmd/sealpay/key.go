package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var key = cli.Command{
	Name:  "key",
	Usage: "derive the shared secret between the daemon and a public key",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "pubkey",
			Usage:    "hex encoded compressed public key of the counterparty",
			Required: true,
		},
	},
	Action: keyAction,
}

func keyAction(c *cli.Context) error {
	payload, err := request(http.MethodGet, "/v1/key/"+c.String("pubkey"), nil)
	if err != nil {
		return err
	}

	printRespJSON(payload)
	return nil
}
