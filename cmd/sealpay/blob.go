package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
)

var blob = cli.Command{
	Name:  "blob",
	Usage: "store and retrieve opaque payloads under the caller's namespace",
	Subcommands: []*cli.Command{
		{
			Name:      "put",
			Usage:     "store a payload read from a file, or from stdin if no file is given",
			ArgsUsage: "<name> [file]",
			Action:    blobPutAction,
		},
		{
			Name:      "get",
			Usage:     "print a stored payload to stdout",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name: "owner",
					Usage: "hex encoded public key of the identity that " +
						"stored the payload, defaults to the caller",
				},
			},
			Action: blobGetAction,
		},
	},
}

func blobPutAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("blob name is missing")
	}
	name := c.Args().Get(0)

	var data []byte
	var err error
	if c.NArg() > 1 {
		data, err = os.ReadFile(c.Args().Get(1))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}

	payload, err := rawRequest(http.MethodPost, "/v1/blob/"+name, data)
	if err != nil {
		return err
	}

	printRespJSON(payload)
	return nil
}

func blobGetAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("blob name is missing")
	}

	apiPath := "/v1/blob/" + c.Args().Get(0)
	if owner := c.String("owner"); owner != "" {
		apiPath = "/v1/blob/" + owner + "/" + c.Args().Get(0)
	}

	payload, err := rawRequest(http.MethodGet, apiPath, nil)
	if err != nil {
		return err
	}

	os.Stdout.Write(payload)
	return nil
}

func rawRequest(method, apiPath string, body []byte) ([]byte, error) {
	baseURL, err := daemonURL()
	if err != nil {
		return nil, err
	}
	bearer, err := identityKey()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, baseURL+apiPath, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon replied %d: %s", res.StatusCode, payload)
	}
	return payload, nil
}
