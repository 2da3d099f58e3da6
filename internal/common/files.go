/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wallet-lifecycle-go/internal/models"

	"gopkg.in/yaml.v2"
)

type PaymentMethodConfig struct {
	Id       string            `yaml:"id"`
	Kind     string            `yaml:"kind"`
	Name     string            `yaml:"name"`
	Symbol   string            `yaml:"symbol"`
	Network  string            `yaml:"network"`
	Address  string            `yaml:"address"`
	Details  map[string]string `yaml:"details"`
	Inactive bool              `yaml:"inactive"`
}

type PaymentMethodsConfig struct {
	PaymentMethods []PaymentMethodConfig `yaml:"payment_methods"`
}

type WalletConfig struct {
	Symbol   string `yaml:"symbol"`
	WalletId string `yaml:"wallet_id"`
}

type WalletsConfig struct {
	Wallets []WalletConfig `yaml:"wallets"`
}

// LoadPaymentMethods reads the admin payment configuration. Order in the
// file is the display order.
func LoadPaymentMethods(file string) ([]models.PaymentMethod, error) {
	var config PaymentMethodsConfig
	if err := readYaml(file, &config); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	methods := make([]models.PaymentMethod, 0, len(config.PaymentMethods))
	for i, pm := range config.PaymentMethods {
		if pm.Id == "" {
			return nil, fmt.Errorf("payment method at index %d missing id", i)
		}
		if seen[pm.Id] {
			return nil, fmt.Errorf("duplicate payment method id %q", pm.Id)
		}
		seen[pm.Id] = true
		switch pm.Kind {
		case "crypto":
			if pm.Symbol == "" || pm.Network == "" || pm.Address == "" {
				return nil, fmt.Errorf("crypto payment method %q requires symbol, network and address", pm.Id)
			}
		case "bank", "p2p":
		default:
			return nil, fmt.Errorf("payment method %q has unknown kind %q", pm.Id, pm.Kind)
		}

		methods = append(methods, models.PaymentMethod{
			Id:        pm.Id,
			Kind:      pm.Kind,
			Name:      pm.Name,
			Symbol:    strings.ToUpper(pm.Symbol),
			Network:   pm.Network,
			Address:   pm.Address,
			Details:   pm.Details,
			IsActive:  !pm.Inactive,
			SortOrder: i,
		})
	}
	return methods, nil
}

// LoadPrimeWallets maps asset symbols to the Prime wallet ids payouts are
// sent from
func LoadPrimeWallets(file string) (map[string]string, error) {
	var config WalletsConfig
	if err := readYaml(file, &config); err != nil {
		return nil, err
	}

	wallets := make(map[string]string, len(config.Wallets))
	for i, w := range config.Wallets {
		if w.Symbol == "" {
			return nil, fmt.Errorf("wallet at index %d missing symbol", i)
		}
		if w.WalletId == "" {
			return nil, fmt.Errorf("wallet at index %d missing wallet_id", i)
		}
		wallets[strings.ToUpper(w.Symbol)] = w.WalletId
	}
	return wallets, nil
}

func readYaml(file string, out any) error {
	path := file
	if !filepath.IsAbs(file) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", file, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unable to parse %s: %w", file, err)
	}
	return nil
}
