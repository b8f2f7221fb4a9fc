// Command smoke drives a running blockvoice server through one session.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var client = &http.Client{Timeout: 10 * time.Second}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	wait := flag.Duration("wait", 2*time.Second, "time to wait for the server to start")
	flag.Parse()

	time.Sleep(*wait)
	fmt.Println("Starting smoke test...")

	var session struct {
		ID string `json:"id"`
	}
	step("Create session", send(*baseURL, http.MethodPost, "/sessions", nil, &session))
	base := "/sessions/" + session.ID

	for _, transcript := range []string{"add print", "add text", "select first block", "group block", "group next block", "connect blocks"} {
		var res struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		err := send(*baseURL, http.MethodPost, base+"/transcript", map[string]string{"transcript": transcript}, &res)
		if err == nil && !res.Success {
			err = fmt.Errorf("%s", res.Message)
		}
		step("Say "+transcript, err)
	}

	var code struct {
		Code string `json:"code"`
	}
	time.Sleep(1500 * time.Millisecond)
	step("Read code", send(*baseURL, http.MethodGet, base+"/code", nil, &code))
	fmt.Print(code.Code)

	step("Delete session", send(*baseURL, http.MethodDelete, base, nil, nil))
	fmt.Println("All steps passed")
}

func step(name string, err error) {
	if err != nil {
		fmt.Printf("FAILED: %s: %v\n", name, err)
		os.Exit(1)
	}
	fmt.Printf("PASSED: %s\n", name)
}

func send(baseURL, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
