package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var psbt = cli.Command{
	Name:  "psbt",
	Usage: "build the unsigned transfer paying an invoice",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "invoice",
			Usage:    "the invoice string to pay",
			Required: true,
		},
	},
	Action: psbtAction,
}

func psbtAction(c *cli.Context) error {
	payload, err := request(http.MethodPost, "/v1/psbt", map[string]interface{}{
		"invoice": c.String("invoice"),
	})
	if err != nil {
		return err
	}

	printRespJSON(payload)
	return nil
}

var pay = cli.Command{
	Name:  "pay",
	Usage: "sign and execute a previously built transfer",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "psbt",
			Usage:    "the base64 psbt returned by the psbt command",
			Required: true,
		},
	},
	Action: payAction,
}

func payAction(c *cli.Context) error {
	payload, err := request(http.MethodPost, "/v1/pay", map[string]interface{}{
		"psbt": c.String("psbt"),
	})
	if err != nil {
		return err
	}

	printRespJSON(payload)
	return nil
}

var accept = cli.Command{
	Name:  "accept",
	Usage: "validate and commit an incoming consignment",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "consignment",
			Usage:    "the base64 consignment handed over by the payer",
			Required: true,
		},
	},
	Action: acceptAction,
}

func acceptAction(c *cli.Context) error {
	payload, err := request(http.MethodPost, "/v1/accept", map[string]interface{}{
		"consignment": c.String("consignment"),
	})
	if err != nil {
		return err
	}

	printRespJSON(payload)
	return nil
}
