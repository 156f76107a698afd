// Command smoke drives a deployed instance through the core registration
// flow: login, list sections, add, check vacancy, timetable, drop. It exits
// non-zero when any critical step fails, so it can gate deployments.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type step struct {
	Name     string
	Method   string
	Path     string
	Body     interface{}
	Critical bool
	Expect   int
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080/api/v1", "API base URL")
	username := flag.String("username", "", "student username")
	password := flag.String("password", "", "student password")
	courseCode := flag.String("course", "", "course code to exercise")
	index := flag.Int("index", 0, "section index to exercise")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if *username == "" || *password == "" || *courseCode == "" || *index == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}

	token, err := login(client, *baseURL, *username, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	section := map[string]interface{}{"course_code": *courseCode, "index": *index}
	steps := []step{
		{Name: "list sections", Method: http.MethodGet, Path: "/sections", Critical: true, Expect: http.StatusOK},
		{Name: "add course", Method: http.MethodPost, Path: "/registrations", Body: section, Critical: true, Expect: http.StatusCreated},
		{Name: "vacancy", Method: http.MethodGet, Path: fmt.Sprintf("/sections/%s/%d/vacancy", *courseCode, *index), Critical: true, Expect: http.StatusOK},
		{Name: "timetable", Method: http.MethodGet, Path: "/students/self/timetable", Critical: false, Expect: http.StatusOK},
		{Name: "drop course", Method: http.MethodPost, Path: "/registrations/drop", Body: section, Critical: true, Expect: http.StatusOK},
	}

	failures := 0
	for _, s := range steps {
		if err := run(client, *baseURL, token, s); err != nil {
			log.Printf("FAIL %-14s %v", s.Name, err)
			if s.Critical {
				failures++
			}
			continue
		}
		log.Printf("ok   %s", s.Name)
	}

	if failures > 0 {
		log.Fatalf("%d critical step(s) failed", failures)
	}
	log.Println("smoke run passed")
}

func login(client *http.Client, baseURL, username, password string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
		"role":     "student",
	})
	resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", err
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}
	return data.AccessToken, nil
}

func run(client *http.Client, baseURL, token string, s step) error {
	var body io.Reader
	if s.Body != nil {
		payload, err := json.Marshal(s.Body)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(s.Method, baseURL+s.Path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if s.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != s.Expect {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Error != nil {
			return fmt.Errorf("status %d (%s: %s)", resp.StatusCode, env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("status %d, want %d", resp.StatusCode, s.Expect)
	}
	return nil
}
