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

package prime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"wallet-lifecycle-go/internal/models"

	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Service is a Rail that pays out through Coinbase Prime wallet withdrawals
type Service struct {
	portfoliosSvc portfolios.PortfoliosService
	portfolioId   string
	wallets       map[string]string

	// createWithdrawal returns the Prime activity id of the withdrawal
	createWithdrawal func(ctx context.Context, req *transactions.CreateWalletWithdrawalRequest) (string, error)
}

// NewService builds the Prime rail. wallets maps an asset symbol to the
// Prime wallet id funds are sent from. When portfolioId is empty the
// default portfolio is looked up.
func NewService(ctx context.Context, creds *credentials.Credentials, portfolioId string, wallets map[string]string) (*Service, error) {
	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	restClient := client.NewRestClient(creds, httpClient)
	transactionsSvc := transactions.NewTransactionsService(restClient)

	s := &Service{
		portfoliosSvc: portfolios.NewPortfoliosService(restClient),
		portfolioId:   portfolioId,
		wallets:       normalizeWallets(wallets),
		createWithdrawal: func(ctx context.Context, req *transactions.CreateWalletWithdrawalRequest) (string, error) {
			response, err := transactionsSvc.CreateWalletWithdrawal(ctx, req)
			if err != nil {
				return "", err
			}
			return response.ActivityId, nil
		},
	}

	if s.portfolioId == "" {
		zap.L().Info("Finding default portfolio")
		portfolio, err := s.FindDefaultPortfolio(ctx)
		if err != nil {
			return nil, err
		}
		zap.L().Info("Using default portfolio",
			zap.String("name", portfolio.Name),
			zap.String("id", portfolio.Id))
		s.portfolioId = portfolio.Id
	}

	return s, nil
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func (s *Service) FindDefaultPortfolio(ctx context.Context) (*models.Portfolio, error) {
	response, err := s.portfoliosSvc.ListPortfolios(ctx, &portfolios.ListPortfoliosRequest{})
	if err != nil {
		return nil, fmt.Errorf("unable to list portfolios: %w", err)
	}

	for _, p := range response.Portfolios {
		if p.Name == "Default Portfolio" {
			return &models.Portfolio{Id: p.Id, Name: p.Name}, nil
		}
	}

	return nil, fmt.Errorf("default portfolio not found")
}

// Send creates a blockchain withdrawal. The withdrawal id is the idempotency
// key, so a retried approval resolves to the same Prime activity.
func (s *Service) Send(ctx context.Context, payout models.Payout) (string, error) {
	symbol := strings.ToUpper(payout.Symbol)
	walletId, ok := s.wallets[symbol]
	if !ok {
		return "", fmt.Errorf("%w: no prime wallet configured for %s", ErrRail, symbol)
	}

	request := &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:       s.portfolioId,
		SourceWalletId:    walletId,
		Amount:            payout.Amount.String(),
		IdempotencyKey:    payout.IdempotencyKey,
		Symbol:            symbol,
		DestinationType:   "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: blockchainAddress(payout.Address, payout.Network),
	}

	zap.L().Info("Creating withdrawal via Prime API",
		zap.String("portfolio_id", request.PortfolioId),
		zap.String("wallet_id", walletId),
		zap.String("symbol", symbol),
		zap.String("amount", request.Amount),
		zap.String("idempotency_key", request.IdempotencyKey))

	activityId, err := s.createWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to create withdrawal",
			zap.String("wallet_id", walletId),
			zap.String("idempotency_key", payout.IdempotencyKey),
			zap.Error(err))
		return "", fmt.Errorf("%w: unable to create withdrawal: %v", ErrRail, err)
	}

	zap.L().Info("Withdrawal created successfully",
		zap.String("activity_id", activityId),
		zap.String("idempotency_key", payout.IdempotencyKey))
	return activityId, nil
}

// blockchainAddress maps "ethereum-mainnet" to network id "ethereum" and
// type "mainnet". A bare network name leaves the choice to Prime.
func blockchainAddress(address, network string) *model.BlockchainAddress {
	addr := &model.BlockchainAddress{Address: address}
	if id, kind, ok := strings.Cut(network, "-"); ok && id != "" && kind != "" {
		addr.Network = &model.NetworkDetails{Id: id, Type: kind}
	}
	return addr
}

func normalizeWallets(wallets map[string]string) map[string]string {
	out := make(map[string]string, len(wallets))
	for symbol, id := range wallets {
		out[strings.ToUpper(symbol)] = id
	}
	return out
}
