// Package main AI News Aggregator API
//
// AI News Aggregator ingests AI-industry RSS feeds, deduplicates articles into
// a local store, and enriches them with model-generated sentiment analysis for
// an investment-oriented dashboard.
//
//	Schemes: http, https
//	Host: localhost:8080
//	BasePath: /api/v1
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs

import "github.com/swaggo/swag"

// @title AI News Aggregator API
// @version 1.0
// @description RSS ingestion and model-driven sentiment enrichment for AI industry news
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AI News Aggregator API",
        "description": "RSS ingestion and model-driven sentiment enrichment for AI industry news",
        "version": "1.0.0",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        }
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/health": {
            "get": {
                "description": "Health check endpoint",
                "summary": "Health Check",
                "operationId": "healthCheck",
                "responses": {
                    "200": {
                        "description": "Service is healthy",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "status": {
                                    "type": "string",
                                    "example": "healthy"
                                },
                                "service": {
                                    "type": "string",
                                    "example": "ai-news-aggregator"
                                },
                                "poller_active": {
                                    "type": "boolean"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/articles": {
            "get": {
                "description": "List stored articles, newest first, with optional filters",
                "summary": "List Articles",
                "operationId": "listArticles",
                "parameters": [
                    {
                        "name": "sentiment",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "enum": ["Bullish", "Neutral", "Bearish"],
                        "description": "Filter by analyzed sentiment"
                    },
                    {
                        "name": "category",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Filter by analyzed category (e.g. AI Funding)"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Maximum number of articles to return"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Matching articles",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "articles": {
                                    "type": "array",
                                    "items": {
                                        "$ref": "#/definitions/Article"
                                    }
                                },
                                "count": {
                                    "type": "integer"
                                }
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid filter parameters"
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/articles/{id}": {
            "get": {
                "description": "Get a single article by id and mark it read",
                "summary": "Get Article",
                "operationId": "getArticle",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Article id (SHA-256 hex digest)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "The article",
                        "schema": {
                            "$ref": "#/definitions/Article"
                        }
                    },
                    "400": {
                        "description": "Invalid article id"
                    },
                    "404": {
                        "description": "Article not found"
                    }
                }
            }
        },
        "/articles/{id}/reanalyze": {
            "post": {
                "description": "Run sentiment analysis again for one article, overwriting any existing result",
                "summary": "Reanalyze Article",
                "operationId": "reanalyzeArticle",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Article id (SHA-256 hex digest)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "The article with its fresh analysis",
                        "schema": {
                            "$ref": "#/definitions/Article"
                        }
                    },
                    "404": {
                        "description": "Article not found"
                    },
                    "502": {
                        "description": "Analysis failed"
                    },
                    "503": {
                        "description": "Analysis is not configured"
                    }
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Sentiment and category counts for the dashboard",
                "summary": "Get Stats",
                "operationId": "getStats",
                "responses": {
                    "200": {
                        "description": "Aggregated statistics",
                        "schema": {
                            "$ref": "#/definitions/Stats"
                        }
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/config": {
            "get": {
                "description": "Effective feed and model configuration; the API key itself is never returned",
                "summary": "Get Config",
                "operationId": "getConfig",
                "responses": {
                    "200": {
                        "description": "Runtime configuration",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "feeds": {
                                    "type": "array",
                                    "items": {
                                        "type": "object",
                                        "properties": {
                                            "name": {"type": "string"},
                                            "url": {"type": "string"}
                                        }
                                    }
                                },
                                "poll_interval": {
                                    "type": "string",
                                    "example": "15m0s"
                                },
                                "model": {
                                    "type": "string"
                                },
                                "has_api_key": {
                                    "type": "boolean"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/refresh": {
            "post": {
                "description": "Fetch all configured feeds and store previously unseen articles",
                "summary": "Refresh Feeds",
                "operationId": "refresh",
                "responses": {
                    "200": {
                        "description": "Refresh report",
                        "schema": {
                            "$ref": "#/definitions/RefreshReport"
                        }
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/analyze": {
            "post": {
                "description": "Analyze a bounded batch of pending articles, oldest first",
                "summary": "Analyze Batch",
                "operationId": "analyze",
                "parameters": [
                    {
                        "name": "batch_size",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Override the configured batch size"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Analysis report",
                        "schema": {
                            "$ref": "#/definitions/AnalyzeReport"
                        }
                    },
                    "503": {
                        "description": "Analysis is not configured"
                    }
                }
            }
        },
        "/poller/status": {
            "get": {
                "description": "Get background poller status and the latest cycle reports",
                "summary": "Get Poller Status",
                "operationId": "getPollerStatus",
                "responses": {
                    "200": {
                        "description": "Poller status",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "is_polling": {
                                    "type": "boolean"
                                },
                                "interval": {
                                    "type": "string"
                                },
                                "last_polled": {
                                    "type": "string",
                                    "format": "date-time"
                                },
                                "last_refresh": {
                                    "$ref": "#/definitions/RefreshReport"
                                },
                                "last_analyze": {
                                    "$ref": "#/definitions/AnalyzeReport"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/poller/force-poll": {
            "post": {
                "description": "Run one refresh-and-analyze cycle immediately",
                "summary": "Force Poll",
                "operationId": "forcePoll",
                "responses": {
                    "202": {
                        "description": "Cycle started"
                    }
                }
            }
        }
    },
    "definitions": {
        "Article": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "description": "Stable content-derived identifier"
                },
                "source": {
                    "type": "string",
                    "description": "Feed name"
                },
                "title": {
                    "type": "string"
                },
                "link": {
                    "type": "string"
                },
                "summary": {
                    "type": "string",
                    "description": "Plain-text feed summary"
                },
                "published_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "fetched_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "is_read": {
                    "type": "boolean"
                },
                "analysis": {
                    "$ref": "#/definitions/Analysis"
                }
            }
        },
        "Analysis": {
            "type": "object",
            "properties": {
                "sentiment": {
                    "type": "string",
                    "enum": ["Bullish", "Neutral", "Bearish"]
                },
                "sentiment_score": {
                    "type": "number"
                },
                "category": {
                    "type": "string",
                    "example": "AI Funding"
                },
                "bubble_indicators": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "ai_summary": {
                    "type": "string"
                },
                "investment_relevance": {
                    "type": "string"
                },
                "analyzed_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "Stats": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer"
                },
                "analyzed": {
                    "type": "integer"
                },
                "sentiment": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "categories": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                }
            }
        },
        "RefreshReport": {
            "type": "object",
            "properties": {
                "feeds_attempted": {
                    "type": "integer"
                },
                "feeds_failed": {
                    "type": "integer"
                },
                "articles_new": {
                    "type": "integer"
                },
                "feeds": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "feed": {"type": "string"},
                            "url": {"type": "string"},
                            "entries": {"type": "integer"},
                            "error": {"type": "string"}
                        }
                    }
                },
                "completed_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "AnalyzeReport": {
            "type": "object",
            "properties": {
                "attempted": {
                    "type": "integer"
                },
                "succeeded": {
                    "type": "integer"
                },
                "failed": {
                    "type": "integer"
                },
                "failures": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "id": {"type": "string"},
                            "reason": {"type": "string"}
                        }
                    }
                },
                "not_configured": {
                    "type": "boolean"
                },
                "completed_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        }
    },
    "tags": [
        {
            "name": "Health",
            "description": "Health check endpoints"
        },
        {
            "name": "Articles",
            "description": "Article listing and analysis endpoints"
        },
        {
            "name": "Pipeline",
            "description": "Refresh and analysis operations"
        },
        {
            "name": "Poller",
            "description": "Background poller endpoints"
        }
    ]
}`
