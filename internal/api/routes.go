package api

import (
	"alcyxob/coach-dashboard/internal/app"
	"alcyxob/coach-dashboard/internal/domain"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, services app.Services) {
	authHandler := NewAuthHandler(services.Auth)
	programHandler := NewProgramHandler(services.Programs, services.Editor, services.Export)
	editorHandler := NewEditorHandler(services.Editor)
	nutritionHandler := NewNutritionHandler(services.Nutrition, services.Export)
	clientHandler := NewClientHandler(services.Clients)
	adminHandler := NewAdminHandler(services.Admin)

	authMiddleware := AuthMiddleware(services.Auth)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/onboarding/complete", authMiddleware, authHandler.CompleteOnboarding)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)
		protected.GET("/me/coaching", clientHandler.MyCoaching)

		// Foods are readable by every account
		protected.GET("/foods", nutritionHandler.ListFoods)
	}

	// --- Coach Routes ---
	// Require authentication, a coach or admin role and completed onboarding.
	coach := protected.Group("")
	coach.Use(RoleMiddleware(domain.RoleCoach, domain.RoleAdmin), OnboardingMiddleware())
	{
		programs := coach.Group("/programs")
		{
			programs.GET("", programHandler.ListPrograms)
			programs.POST("", programHandler.CreateProgram)
			programs.GET("/:id", programHandler.GetProgram)
			programs.PATCH("/:id", programHandler.UpdateProgram)
			programs.DELETE("/:id", programHandler.DeleteProgram)
			programs.POST("/:id/weeks", programHandler.AddWeek)
			programs.POST("/:id/duplicate", programHandler.DuplicateProgram)
			programs.POST("/:id/export", programHandler.ExportProgram)
			programs.POST("/:id/sessions", editorHandler.OpenSession)
		}

		sessions := coach.Group("/sessions/:sid")
		{
			sessions.GET("", editorHandler.GetSession)
			sessions.DELETE("", editorHandler.CloseSession)
			sessions.PUT("/week", editorHandler.SelectWeek)
			sessions.POST("/weeks", editorHandler.AddWeek)
			sessions.GET("/weeks/:n/days", editorHandler.ListDays)

			sessions.POST("/days/toggle-rest", editorHandler.ToggleRestDay)
			sessions.POST("/days/clear", editorHandler.ClearDay)
			sessions.PATCH("/days", editorHandler.UpdateDay)
			sessions.POST("/days/blocks", editorHandler.AddBlock)
			sessions.POST("/days/:dayId/save", editorHandler.SaveDay)

			sessions.PATCH("/blocks/:blockId", editorHandler.UpdateBlock)
			sessions.DELETE("/blocks/:blockId", editorHandler.RemoveBlock)
			sessions.POST("/blocks/:blockId/save", editorHandler.SaveBlock)
			sessions.POST("/blocks/:blockId/movements", editorHandler.AddMovement)
			sessions.DELETE("/blocks/:blockId/movements/:index", editorHandler.RemoveMovement)
			sessions.POST("/blocks/:blockId/movements/reorder", editorHandler.ReorderMovements)
			sessions.POST("/blocks/:blockId/items", editorHandler.AddItem)
			sessions.DELETE("/blocks/:blockId/items/:index", editorHandler.RemoveItem)
			sessions.POST("/blocks/:blockId/items/reorder", editorHandler.ReorderItems)

			sessions.GET("/progressions/:pid", editorHandler.Progression)
			sessions.POST("/save", editorHandler.SaveAll)
		}

		foods := coach.Group("/foods")
		{
			foods.POST("", nutritionHandler.CreateFood)
			foods.PUT("/:id", nutritionHandler.UpdateFood)
			foods.DELETE("/:id", nutritionHandler.DeleteFood)
			foods.POST("/bulk-delete", nutritionHandler.BulkDeleteFoods)
		}

		mealPlans := coach.Group("/meal-plans")
		{
			mealPlans.GET("", nutritionHandler.ListMealPlans)
			mealPlans.POST("", nutritionHandler.CreateMealPlan)
			mealPlans.GET("/:id", nutritionHandler.GetMealPlan)
			mealPlans.POST("/:id/export", nutritionHandler.ExportMealPlan)
			mealPlans.POST("/:id/sessions", nutritionHandler.OpenMealSession)
		}

		mealSessions := coach.Group("/meal-sessions/:sid")
		{
			mealSessions.GET("", nutritionHandler.GetMealSession)
			mealSessions.DELETE("", nutritionHandler.CloseMealSession)
			mealSessions.POST("/meals", nutritionHandler.AddMeal)
			mealSessions.PATCH("/meals/:mealId", nutritionHandler.UpdateMeal)
			mealSessions.POST("/meals/:mealId/items", nutritionHandler.AddMealItem)
			mealSessions.PATCH("/meals/:mealId/items/:index", nutritionHandler.SetMealItemQuantity)
			mealSessions.DELETE("/meals/:mealId/items/:index", nutritionHandler.RemoveMealItem)
			mealSessions.POST("/meals/:mealId/items/reorder", nutritionHandler.ReorderMealItems)
			mealSessions.POST("/save", nutritionHandler.SaveMealPlan)
		}

		clients := coach.Group("/clients")
		{
			clients.GET("", clientHandler.ListClients)
			clients.POST("", clientHandler.CreateClient)
			clients.GET("/:id", clientHandler.GetClient)
			clients.PATCH("/:id", clientHandler.UpdateClient)
			clients.POST("/bulk-delete", clientHandler.BulkDeleteClients)
		}
	}

	// --- Admin Routes ---
	admin := protected.Group("/admin")
	admin.Use(RoleMiddleware(domain.RoleAdmin))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/bulk-delete", adminHandler.BulkDeleteUsers)
	}
}
