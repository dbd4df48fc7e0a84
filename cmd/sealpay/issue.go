package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var issue = cli.Command{
	Name:  "issue",
	Usage: "issue a new asset contract",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "ticker",
			Usage:    "short ticker of the asset, eg. USDT",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "name",
			Usage:    "human readable name of the asset",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "optional description of the asset",
		},
		&cli.UintFlag{
			Name:  "precision",
			Usage: "number of decimal digits of the asset",
			Value: 0,
		},
		&cli.StringFlag{
			Name:     "supply",
			Usage:    "total supply in asset units, eg. 21.5",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "seal",
			Usage:    "genesis seal descriptor closemethod:txid:vout",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "iface",
			Usage: "contract interface",
			Value: "SPA20",
		},
	},
	Action: issueAction,
}

func issueAction(c *cli.Context) error {
	payload, err := request(http.MethodPost, "/v1/issue", map[string]interface{}{
		"ticker":      c.String("ticker"),
		"name":        c.String("name"),
		"description": c.String("description"),
		"precision":   c.Uint("precision"),
		"supply":      c.String("supply"),
		"seal":        c.String("seal"),
		"iface":       c.String("iface"),
	})
	if err != nil {
		return err
	}

	printRespJSON(payload)
	return nil
}
