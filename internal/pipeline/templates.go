package pipeline

// Fixed artifact documents stored during the config stage. Section headings
// are load-bearing: the structure stage extracts manifests and snippets from
// configDocument by heading name.
const configDocument = `Weather Web App Configuration:

# Project Structure
/weather-app
  /frontend
    /src
      /components
      /hooks
      /types
    package.json
    vite.config.ts
    tsconfig.json
    index.html
  /backend
    /src
    package.json
    tsconfig.json

# Frontend Dependencies
{
  "dependencies": {
    "react": "^18.2.0",
    "react-dom": "^18.2.0",
    "axios": "^1.6.0",
    "typescript": "^5.0.0"
  },
  "devDependencies": {
    "@types/react": "^18.2.0",
    "@types/react-dom": "^18.2.0",
    "vite": "^5.0.0",
    "@vitejs/plugin-react": "^4.0.0"
  }
}

# Backend Dependencies
{
  "dependencies": {
    "express": "^4.18.0",
    "cors": "^2.8.5",
    "typescript": "^5.0.0",
    "axios": "^1.6.0"
  },
  "devDependencies": {
    "@types/express": "^4.17.0",
    "@types/cors": "^2.8.5",
    "ts-node": "^10.9.0",
    "nodemon": "^3.0.0"
  }
}

# Frontend TypeScript Config
{
  "compilerOptions": {
    "target": "ES2020",
    "useDefineForClassFields": true,
    "lib": ["ES2020", "DOM", "DOM.Iterable"],
    "module": "ESNext",
    "skipLibCheck": true,
    "moduleResolution": "bundler",
    "allowImportingTsExtensions": true,
    "resolveJsonModule": true,
    "isolatedModules": true,
    "noEmit": true,
    "jsx": "react-jsx",
    "strict": true,
    "noUnusedLocals": true,
    "noUnusedParameters": true,
    "noFallthroughCasesInSwitch": true
  },
  "include": ["src"],
  "references": [{ "path": "./tsconfig.node.json" }]
}

# CSS Modules Type Definition
declare module '*.module.css' {
  const classes: { [key: string]: string };
  export default classes;
}
`

const planDocument = `Weather Web App Development Plan:
1. Frontend Setup (React + TypeScript)
   - Weather display component
   - Data fetching hook
   - Error handling
   - Loading states

2. Backend API (Node/Express)
   - Weather data endpoint
   - Caching layer
   - Error handling
   - Rate limiting

3. Weather API Integration
   - API key management
   - Data transformation
   - Error handling
   - Backup providers

4. User Preferences
   - Location storage
   - Temperature unit preference
   - Update frequency

5. Deployment
   - Environment setup
   - Docker configuration
   - CI/CD pipeline
`

// Decision documents stored alongside generated artifacts and linked with
// "explains" edges.
const frontendDecisionsDocument = `Design Decisions for Weather Display:
1. Using functional components with hooks for modern React practices
2. TypeScript for type safety
3. CSS modules for scoped styling
4. Component will fetch data through a custom hook
`

const backendDecisionsDocument = `Backend Design Decisions:
1. Express.js with TypeScript for type safety
2. Redis for caching weather data
3. Rate limiting per API key
4. Error handling middleware
5. OpenAPI/Swagger documentation
`

const deploymentDecisionsDocument = `Deployment Decisions:
1. Multi-stage Docker builds
2. Docker Compose for development
3. GitHub Actions for CI/CD
4. Environment variable management
`

// Fixed scaffolding written by the structure stage.
const viteConfigTemplate = `import { defineConfig } from 'vite'
import react from '@vitejs/plugin-react'

export default defineConfig({
  plugins: [react()],
  server: {
    proxy: {
      '/api': 'http://localhost:3001'
    }
  }
})`

const indexHTMLTemplate = `<!DOCTYPE html>
<html>
  <head>
    <title>Weather App</title>
  </head>
  <body>
    <div id="root"></div>
    <script type="module" src="/src/main.tsx"></script>
  </body>
</html>`

const backendTSConfigTemplate = `{
  "compilerOptions": {
    "target": "es6",
    "module": "commonjs",
    "outDir": "./dist",
    "rootDir": "./src",
    "strict": true,
    "esModuleInterop": true,
    "skipLibCheck": true
  },
  "include": ["src/**/*"]
}`

// Generation prompts. Each embeds prior artifact content resolved through
// the registry.
const componentPrompt = `Create a React component for weather display.
Project Context:
%s

Requirements:
- Show current temperature
- Show weather condition
- Show forecast
- Use modern React practices (hooks, functional components)
- Include proper TypeScript types
- Add styling (CSS modules)
`

const hookPrompt = `Create a React hook for fetching weather data.
Previous Decisions:
%s

Requirements:
- Handle loading states
- Error handling
- Cache results
- TypeScript types
`

const backendPrompt = `Create an Express.js backend for the weather app.
Frontend Context:
%s
Hook Implementation:
%s

Requirements:
- Express.js with TypeScript
- Weather API integration
- Caching layer
- Error handling
- Rate limiting
`

const deploymentPrompt = `Create deployment configuration for the weather app.
Backend Implementation:
%s
Backend Context:
%s

Requirements:
- Docker configuration
- Docker Compose for local dev
- Environment variables
- Basic CI/CD pipeline
`
