package server

import (
	"log/slog"

	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/notifications"
	"blackdonut/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	FoodID uint   `json:"foodId"`
	Text   string `json:"text"`
}

// AddComment handles POST /api/comments
// @Summary Comment on a food
// @Tags comments
// @Accept json
// @Produce json
// @Param request body object{foodId=int,text=string} true "Comment"
// @Success 201 {object} object{message=string,comment=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		Actor:  actorFrom(c),
		FoodID: req.FoodID,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.notifyCommentOwner(c, comment, notifications.EventCommentCreated)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// AddPartnerComment handles POST /api/comments/add-by-partner
// @Summary Comment on a food as a partner
// @Tags comments
// @Accept json
// @Produce json
// @Param request body object{foodId=int,text=string} true "Comment"
// @Success 201 {object} object{message=string,comment=models.Comment}
// @Router /comments/add-by-partner [post]
func (s *Server) AddPartnerComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.AddPartnerComment(c.UserContext(), service.AddCommentInput{
		Actor:  actorFrom(c),
		FoodID: req.FoodID,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// DeleteOwnComment handles DELETE /api/comments/:id
// @Summary Delete your own comment
// @Tags comments
// @Param id path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteOwnComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.DeleteOwnComment(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	s.notifyCommentOwner(c, comment, notifications.EventCommentDeleted)

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// ListComments handles GET /api/comments/food/:foodId
// @Summary List a food's comments, pinned first
// @Tags comments
// @Produce json
// @Param foodId path int true "Food ID"
// @Success 200 {object} object{message=string,comments=[]models.Comment}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/food/{foodId} [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	foodID, err := parseID(c, "foodId")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), foodID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Comments fetched successfully",
		"comments": comments,
	})
}

// GetEngagementStats handles GET /api/comments/engagement/:foodId
// @Summary Engagement totals for an owned food
// @Tags engagement
// @Produce json
// @Param foodId path int true "Food ID"
// @Success 200 {object} object{message=string,stats=models.EngagementStats}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/engagement/{foodId} [get]
func (s *Server) GetEngagementStats(c *fiber.Ctx) error {
	foodID, err := parseID(c, "foodId")
	if err != nil {
		return nil
	}

	stats, err := s.commentService.GetEngagementStats(c.UserContext(), foodID, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Engagement stats retrieved",
		"stats":   stats,
	})
}

// TogglePin handles PUT /api/comments/engagement/:commentId/pin
// @Summary Pin or unpin a comment
// @Tags engagement
// @Produce json
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{message=string,comment=models.Comment}
// @Router /comments/engagement/{commentId}/pin [put]
func (s *Server) TogglePin(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.TogglePin(c.UserContext(), commentID, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}

	message := "Comment unpinned"
	if comment.IsPinned {
		message = "Comment pinned"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"comment": comment,
	})
}

// ReplyToComment handles POST /api/comments/engagement/:commentId/reply
// @Summary Reply to a comment on an owned food
// @Tags engagement
// @Accept json
// @Produce json
// @Param commentId path int true "Comment ID"
// @Param request body object{text=string} true "Reply"
// @Success 200 {object} object{message=string,comment=models.Comment}
// @Router /comments/engagement/{commentId}/reply [post]
func (s *Server) ReplyToComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.Reply(c.UserContext(), commentID, actorFrom(c), req.Text)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Reply added successfully",
		"comment": comment,
	})
}

// DeleteCommentAsOwner handles DELETE /api/comments/engagement/:commentId
// @Summary Remove a comment from an owned food
// @Tags engagement
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Router /comments/engagement/{commentId} [delete]
func (s *Server) DeleteCommentAsOwner(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if _, err := s.commentService.DeleteAsOwner(c.UserContext(), commentID, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// notifyCommentOwner tells the food's partner about a user comment change.
func (s *Server) notifyCommentOwner(c *fiber.Ctx, comment *models.Comment, eventType string) {
	food, err := s.foodRepo.GetByID(c.UserContext(), comment.FoodID)
	if err != nil {
		middleware.Logger.DebugContext(c.UserContext(), "skipping comment event", slog.String("error", err.Error()))
		return
	}
	s.publishPartnerEvent(c.UserContext(), food.FoodPartnerID, eventType, map[string]interface{}{
		"foodId":    food.ID,
		"commentId": comment.ID,
		"text":      comment.Text,
	})
}
