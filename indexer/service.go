package indexer

import (
	"context"
	"errors"
	"net/http"

	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

type Service struct {
	engine  *gin.Engine
	indexer *ChainIndexer
	srv     *http.Server
}

func NewService(ListenAddr string, indexer *ChainIndexer) *Service {
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		engine:  r,
		indexer: indexer,
	}
	s.srv = &http.Server{Addr: ListenAddr, Handler: r}
	s.engine.POST("/getParticipants", s.handleGetParticipants)
	s.engine.POST("/getClaims", s.handleGetClaims)
	s.engine.POST("/getContributions", s.handleGetContributions)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	return s
}

// Start serves until Stop is called. A service stopped before it started
// returns at once.
func (s *Service) Start() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Service) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (p Page) normalize() (int, int) {
	page, size := p.Page, p.PageSize
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func normalizeAddress(addr string) string {
	return types.Identity(addr).Normalize().String()
}

type GetParticipantsReq struct {
	Address string `json:"address"`
	Page
}

type GetParticipantsResponse struct {
	Participants []Participant `json:"participants"`
	Total        uint64        `json:"total"`
}

func (s *Service) handleGetParticipants(c *gin.Context) {
	var requestData GetParticipantsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, size := requestData.normalize()
	participants, total, err := s.indexer.getParticipants(normalizeAddress(requestData.Address), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetParticipantsResponse{Participants: participants, Total: total})
}

type GetClaimsReq struct {
	Participant string `json:"participant"`
	Page
}

type GetClaimsResponse struct {
	Claims []Claim `json:"claims"`
	Total  uint64  `json:"total"`
}

func (s *Service) handleGetClaims(c *gin.Context) {
	var requestData GetClaimsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, size := requestData.normalize()
	claims, total, err := s.indexer.getClaims(normalizeAddress(requestData.Participant), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetClaimsResponse{Claims: claims, Total: total})
}

type GetContributionsReq struct {
	Contributor string `json:"contributor"`
	Page
}

type GetContributionsResponse struct {
	Contributions []Contribution `json:"contributions"`
	Total         uint64         `json:"total"`
}

func (s *Service) handleGetContributions(c *gin.Context) {
	var requestData GetContributionsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, size := requestData.normalize()
	contributions, total, err := s.indexer.getContributions(normalizeAddress(requestData.Contributor), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetContributionsResponse{Contributions: contributions, Total: total})
}

type GetProposalsReq struct {
	ProposalId uint64 `json:"proposalId"`
	Proposer   string `json:"proposer"`
	Status     string `json:"status"`
	Page
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.ProposalId != 0 {
		proposalInfo, err := s.getProposalInfo(requestData.ProposalId)
		if gorm.IsRecordNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, proposalInfo)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	page, size := requestData.normalize()
	proposals, total, err := s.indexer.getProposals(normalizeAddress(requestData.Proposer), requestData.Status, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, proposal := range proposals {
		votes, _, err := s.indexer.getVotes(proposal.Id, "", 0, maxPageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: proposal, Votes: votes})
	}
	c.JSON(http.StatusOK, response)
}

func (s *Service) getProposalInfo(proposalId uint64) (ProposalInfo, error) {
	proposal, err := s.indexer.getProposalById(proposalId)
	if err != nil {
		return ProposalInfo{}, err
	}
	votes, _, err := s.indexer.getVotes(proposalId, "", 0, maxPageSize)
	if err != nil {
		return ProposalInfo{}, err
	}
	return ProposalInfo{Proposal: proposal, Votes: votes}, nil
}

type GetVotesReq struct {
	ProposalId uint64 `json:"proposalId"`
	Voter      string `json:"voter"`
	Page
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId == 0 && requestData.Voter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voter is required"})
		return
	}
	page, size := requestData.normalize()
	votes, total, err := s.indexer.getVotes(requestData.ProposalId, normalizeAddress(requestData.Voter), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes, Total: total})
}
