package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"
)

var (
	sealpayDataDir = btcutil.AppDataDir("sealpay", false)
	statePath      = path.Join(sealpayDataDir, "state.json")

	httpClient = &http.Client{Timeout: 60 * time.Second}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "sealpay CLI"
	app.Usage = "Command line interface for sealpayd daemon users"
	app.Commands = append(
		app.Commands,
		&configCmd,
		&issue,
		&invoice,
		&psbt,
		&pay,
		&accept,
		&contracts,
		&interfaces,
		&schemas,
		&invoices,
		&transfers,
		&key,
		&blob,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[sealpay] %v\n", err)
	os.Exit(1)
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	json.Unmarshal(file, &data)

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(sealpayDataDir); os.IsNotExist(err) {
		os.Mkdir(sealpayDataDir, os.ModeDir|0755)
	}

	currentData, _ := getState()
	if currentData == nil {
		currentData = map[string]string{}
	}
	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

func daemonURL() (string, error) {
	state, err := getState()
	if err != nil {
		return "", err
	}
	addr, ok := state["rpcserver"]
	if !ok || len(addr) <= 0 {
		return "", errors.New("missing rpcserver: try 'config init'")
	}
	return "http://" + addr, nil
}

func identityKey() (string, error) {
	state, err := getState()
	if err != nil {
		return "", err
	}
	key, ok := state["identity_key"]
	if !ok || len(key) <= 0 {
		return "", errors.New(
			"missing identity_key: try 'config set identity_key <hex>'",
		)
	}
	return key, nil
}

func request(method, apiPath string, body interface{}) ([]byte, error) {
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
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, baseURL+apiPath, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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

func printRespJSON(payload []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "\t"); err != nil {
		fmt.Println(string(payload))
		return
	}
	fmt.Println(out.String())
}
