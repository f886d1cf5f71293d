// Command sendwebhook renders an AGENDAMENTO_NOVO payload through the domain
// mapper and optionally delivers it to a running instance. Useful for
// checking which row a payload produces before pointing the scheduling
// platform at a deployment.
//
// Usage:
//
//	go run ./cmd/sendwebhook -schema v7 -payload sample.json
//	go run ./cmd/sendwebhook -url http://localhost:10000 -token $WEBHOOK_TOKEN
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"agendasync/internal/domain"
)

const builtinSample = `{
	"evento": "AGENDAMENTO_NOVO",
	"dados": {
		"vistoriador": {"nome": "Ana"},
		"locatario": "João",
		"tipoVistoria": {"id": 5},
		"dataHoraInicio": "2024-03-10T14:00:00Z",
		"imovel": {"endereco": "Rua X", "numero": "42", "bairro": "Centro", "cidade": "SP", "uf": "SP"},
		"observacao": "Entrada, contato@imob.com.br, area de 45 m2"
	}
}`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	url := flag.String("url", "", "base URL of a running instance; omit to only print the mapped row")
	token := flag.String("token", "", "bearer token for the webhook endpoint")
	schemaVersion := flag.String("schema", domain.SchemaV5, "column schema version (v3, v5, v7)")
	payloadPath := flag.String("payload", "", "path to a payload JSON file; omit for the built-in sample")
	legacyOffset := flag.Bool("legacy-offset", false, "apply the historical extra -3h time correction")
	flag.Parse()

	body := []byte(builtinSample)
	if *payloadPath != "" {
		var err error
		if body, err = os.ReadFile(*payloadPath); err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	}

	payload, err := domain.DecodePayload(body)
	if err != nil {
		return err
	}

	schema, err := domain.NewSchema(*schemaVersion, domain.Options{LegacyTimeOffset: *legacyOffset})
	if err != nil {
		return err
	}

	row, err := domain.NewMapper(schema, nil, false).Map(payload)
	if err != nil {
		return fmt.Errorf("map payload: %w", err)
	}

	for i, name := range schema.ColumnNames() {
		log.Printf("%-16s %s", name, row[i])
	}

	if *url == "" {
		return nil
	}

	req, err := http.NewRequest(http.MethodPost, *url+"/api/webhook", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("%s: %s", resp.Status, bytes.TrimSpace(respBody))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("delivery rejected: %s", resp.Status)
	}
	return nil
}
