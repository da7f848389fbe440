package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "items":
		handleItems(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: tasklist <command> [args]

Commands:
  auth register  -email -username -password [-tenant]
  auth login     -email -password
  auth logout
  auth who
  items list
  items add      -text [-assignee]
  items status   <id> <backlog|in-progress|review|done>
  items delete   <id>
  help`)
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tasklist auth <register|login|logout|who>")
		return
	}

	switch args[0] {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleItems(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tasklist items <list|add|status|delete>")
		return
	}

	switch args[0] {
	case "list":
		listItems()
	case "add":
		addItem(args[1:])
	case "status":
		updateItemStatus(args[1:])
	case "delete":
		deleteItem(args[1:])
	default:
		fmt.Printf("unknown items command: %s\n", args[0])
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	tenant := fs.String("tenant", "", "tenant ID (optional)")

	fs.Parse(args)

	if *email == "" || *username == "" || *password == "" {
		fmt.Println("Error: email, username, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":    *email,
		"username": *username,
		"password": *password,
	}
	if *tenant != "" {
		payload["tenantId"] = *tenant
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == http.StatusCreated {
		fmt.Printf("✓ User registered: %s\n", *email)
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == http.StatusOK {
		if token, ok := result["token"].(string); ok {
			if err := saveToken(token); err != nil {
				fmt.Printf("Error saving token: %v\n", err)
				return
			}
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Item commands
func listItems() {
	req, _ := http.NewRequest(http.MethodGet, getAPIURL()+"/items", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		printAPIError(resp)
		return
	}

	var result struct {
		Items []map[string]interface{} `json:"items"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	printItems(result.Items)
}

func addItem(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	text := fs.String("text", "", "item title")
	assignee := fs.String("assignee", "", "assignee (optional)")

	fs.Parse(args)

	if *text == "" {
		fmt.Println("Error: text is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"text": *text}
	if *assignee != "" {
		payload["assignee"] = *assignee
	}
	data, _ := json.Marshal(payload)

	req, _ := http.NewRequest(http.MethodPost, getAPIURL()+"/items", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	doItemsRequest(req)
}

func updateItemStatus(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: tasklist items status <id> <backlog|in-progress|review|done>")
		return
	}

	data, _ := json.Marshal(map[string]string{"status": args[1]})
	req, _ := http.NewRequest(http.MethodPost, getAPIURL()+"/items/"+args[0]+"/status", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	doItemsRequest(req)
}

func deleteItem(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tasklist items delete <id>")
		return
	}

	req, _ := http.NewRequest(http.MethodDelete, getAPIURL()+"/items/"+args[0], nil)
	addAuthHeader(req)

	doItemsRequest(req)
}

// doItemsRequest runs a mutating request and prints the returned collection.
func doItemsRequest(req *http.Request) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		printAPIError(resp)
		return
	}

	var result struct {
		Items []map[string]interface{} `json:"items"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	printItems(result.Items)
}

func printItems(items []map[string]interface{}) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tASSIGNEE")
	for _, it := range items {
		assignee := it["assignee"]
		if assignee == nil {
			assignee = ""
		}
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", it["id"], it["status"], it["title"], assignee)
	}
	w.Flush()
}

func printAPIError(resp *http.Response) {
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	fmt.Printf("✗ Request failed (%d): %v\n", resp.StatusCode, body)
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("TASKLIST_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tasklist", "token")
}

func saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile()), 0700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, err := os.ReadFile(tokenFile())
	if err != nil {
		return ""
	}
	return string(data)
}

func addAuthHeader(req *http.Request) {
	if token := loadToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
